package lifecycle

import "github.com/shopspring/decimal"

// Params are the protocol constants. They are plain values so every call site
// and test can override them.
type Params struct {
	LTVRatio               decimal.Decimal `yaml:"ltv_ratio"`
	LTVCeilingPct          decimal.Decimal `yaml:"ltv_ceiling_pct"`
	MinDeposit             decimal.Decimal `yaml:"min_deposit"`
	DueSoonThresholdDays   int             `yaml:"due_soon_threshold_days"`
	DefaultInterestRatePct decimal.Decimal `yaml:"default_interest_rate_pct"`
	// TermPresets are the terms the UI offers; the engine accepts any positive term.
	TermPresets []int `yaml:"term_presets"`
}

// DefaultParams are the published protocol values: 70% LTV, a 1000 minimum
// deposit, a 30-day due-soon window and a 5% default rate. LTVCeilingPct is
// always LTVRatio expressed as a percentage.
func DefaultParams() Params {
	return Params{
		LTVRatio:               decimal.RequireFromString("0.7"),
		LTVCeilingPct:          decimal.NewFromInt(70),
		MinDeposit:             decimal.NewFromInt(1000),
		DueSoonThresholdDays:   30,
		DefaultInterestRatePct: decimal.RequireFromString("5.0"),
		TermPresets:            []int{90, 180, 365, 730},
	}
}
