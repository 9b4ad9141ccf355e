// Package lifecycle is the collateral-and-loan engine: loan admissibility,
// interest accrual, status derivation and the state transitions of accounts
// and loans. Every function is pure; callers commit the returned values.
package lifecycle

import (
	"time"

	"privylend-backend/internal/domain/loan"
	"privylend-backend/pkg/dateutil"
	"privylend-backend/pkg/money"

	"github.com/shopspring/decimal"
)

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// MaxLoanCapacity is the largest principal a collateral value supports.
func MaxLoanCapacity(collateralValue, ltvRatio decimal.Decimal) decimal.Decimal {
	return collateralValue.Mul(ltvRatio)
}

// CurrentLTV returns requested/value as a percentage, or 0 for a zero value.
func CurrentLTV(requested, collateralValue decimal.Decimal) decimal.Decimal {
	return money.Percent(requested, collateralValue)
}

// Validation is the outcome of ValidateLoanRequest. Reason is nil when Valid.
type Validation struct {
	Valid  bool
	Reason *Error
}

// Err returns the rejection, or nil.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	return v.Reason
}

// ValidateLoanRequest is the single admissibility gate for originations. The
// ceiling is inclusive: exactly ceilingPct passes. A zero collateral value has
// an LTV of 0 here; ApplyLoanOrigination rejects such accounts separately.
func ValidateLoanRequest(requested, collateralValue, ceilingPct decimal.Decimal) Validation {
	if !requested.IsPositive() {
		return Validation{Reason: validation(CodeAmountNonPositive, "requested amount %s must be positive", requested)}
	}
	ltv := CurrentLTV(requested, collateralValue)
	if ltv.GreaterThan(ceilingPct) {
		return Validation{Reason: validation(CodeLtvExceeded, "LTV %s exceeds %s limit; maximum is %s",
			money.FormatPercent(ltv), money.FormatPercent(ceilingPct),
			money.FormatCurrency(collateralValue.Mul(ceilingPct).Div(hundred)))}
	}
	return Validation{Valid: true}
}

// AccruedInterest is simple interest over a 365-day year, with no leap-year
// adjustment for any term length.
func AccruedInterest(principal, annualRatePct decimal.Decimal, termDays int) decimal.Decimal {
	return principal.Mul(annualRatePct).Mul(decimal.NewFromInt(int64(termDays))).Div(hundred.Mul(daysPerYear))
}

// TotalOwed is principal plus AccruedInterest, rounded to cents. The rounded
// figure is what gets stored, reported and settled.
func TotalOwed(principal, annualRatePct decimal.Decimal, termDays int) decimal.Decimal {
	return principal.Add(AccruedInterest(principal, annualRatePct, termDays)).Round(2)
}

// DeriveLoanStatus is the single place a loan's visible status is computed.
// Repaid and Defaulted pass through. Otherwise fewer than thresholdDays left
// means DueSoon, including loans already past due: there is no Overdue state.
func DeriveLoanStatus(stored loan.Status, dueDate, now time.Time, thresholdDays int) loan.Status {
	if stored.Terminal() {
		return stored
	}
	if dateutil.DaysUntil(dueDate, now) < thresholdDays {
		return loan.StatusDueSoon
	}
	return loan.StatusActive
}
