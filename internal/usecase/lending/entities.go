package lending

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositInput struct {
	Owner     string
	AssetType string
	Value     decimal.Decimal
}

type LoanInput struct {
	Borrower     string
	CollateralID string
	Amount       decimal.Decimal
	TermDays     int
	// InterestRate defaults to the protocol rate when nil.
	InterestRate *decimal.Decimal
	// Lender defaults to the configured lender, then to the first pool.
	Lender string
}

type RepayInput struct {
	Borrower string
	LoanID   string
	// Amount zero means the full amount owed.
	Amount decimal.Decimal
}

type DefaultInput struct {
	Lender string
	LoanID string
}

type QuoteInput struct {
	Party string
	// CollateralID selects one of the party's accounts; otherwise
	// CollateralValue is used as is.
	CollateralID    string
	CollateralValue decimal.Decimal
	Amount          decimal.Decimal
	TermDays        int
	InterestRate    *decimal.Decimal
}

type CollateralDTO struct {
	ID              string  `json:"id"`
	Owner           string  `json:"owner"`
	AssetType       string  `json:"assetType"`
	AssetLabel      string  `json:"assetLabel"`
	Value           float64 `json:"value"`
	ValueDisplay    string  `json:"valueDisplay"`
	Status          string  `json:"status"`
	LockDate        string  `json:"lockDate,omitempty"`
	LockDateDisplay string  `json:"lockDateDisplay,omitempty"`
	MaxLoan         float64 `json:"maxLoan"`
}

type LoanDTO struct {
	ID               string  `json:"id"`
	CollateralID     string  `json:"collateralId"`
	Borrower         string  `json:"borrower"`
	Lender           string  `json:"lender,omitempty"`
	Principal        float64 `json:"principal"`
	PrincipalDisplay string  `json:"principalDisplay"`
	InterestRate     float64 `json:"interestRate"`
	TermDays         int     `json:"termDays"`
	StartDate        string  `json:"startDate"`
	DueDate          string  `json:"dueDate"`
	DueDateDisplay   string  `json:"dueDateDisplay"`
	DaysUntilDue     int     `json:"daysUntilDue"`
	Status           string  `json:"status"`
	StatusLabel      string  `json:"statusLabel"`
	TotalOwed        float64 `json:"totalOwed"`
	TotalOwedDisplay string  `json:"totalOwedDisplay"`
	// PendingAcceptance marks an id that names a loan request the lender has
	// not accepted yet. It cannot be repaid until it shows up in the loan list.
	PendingAcceptance bool   `json:"pendingAcceptance,omitempty"`
	Notice            string `json:"notice,omitempty"`
}

type PoolDTO struct {
	ID                    string  `json:"id"`
	Owner                 string  `json:"owner"`
	Name                  string  `json:"name"`
	AvailableFunds        float64 `json:"availableFunds"`
	AvailableFundsDisplay string  `json:"availableFundsDisplay"`
}

type SummaryDTO struct {
	TotalCollateral     float64 `json:"totalCollateral"`
	AvailableCollateral float64 `json:"availableCollateral"`
	LockedCollateral    float64 `json:"lockedCollateral"`
	BorrowingCapacity   float64 `json:"borrowingCapacity"`
	OutstandingLoans    int     `json:"outstandingLoans"`
	DueSoonLoans        int     `json:"dueSoonLoans"`
	TotalOwed           float64 `json:"totalOwed"`
	TotalOwedDisplay    string  `json:"totalOwedDisplay"`
	AvgInterestRate     float64 `json:"avgInterestRate"`
	AvgInterestDisplay  string  `json:"avgInterestRateDisplay"`
}

// Freshness tells the client whether the data came from the ledger.
type Freshness struct {
	Stale  bool      `json:"stale"`
	Notice string    `json:"notice,omitempty"`
	AsOf   time.Time `json:"asOf"`
}

type PortfolioDTO struct {
	Party      string          `json:"party"`
	Collateral []CollateralDTO `json:"collateral"`
	Loans      []LoanDTO       `json:"loans"`
	Pools      []PoolDTO       `json:"pools"`
	Summary    SummaryDTO      `json:"summary"`
	Freshness
}

type CollateralListDTO struct {
	Items []CollateralDTO `json:"items"`
	Freshness
}

type LoanListDTO struct {
	Items []LoanDTO `json:"items"`
	Freshness
}

type QuoteDTO struct {
	CollateralValue   float64 `json:"collateralValue"`
	MaxLoan           float64 `json:"maxLoan"`
	MaxLoanDisplay    string  `json:"maxLoanDisplay"`
	RequestedAmount   float64 `json:"requestedAmount"`
	LTV               float64 `json:"ltv"`
	LTVDisplay        string  `json:"ltvDisplay"`
	TermDays          int     `json:"termDays"`
	InterestRate      float64 `json:"interestRate"`
	EstimatedInterest float64 `json:"estimatedInterest"`
	TotalRepayment    float64 `json:"totalRepayment"`
	TotalDisplay      string  `json:"totalRepaymentDisplay"`
	Valid             bool    `json:"valid"`
	ReasonCode        string  `json:"reasonCode,omitempty"`
	Reason            string  `json:"reason,omitempty"`
}

type ProtocolDTO struct {
	LTVRatio             float64  `json:"ltvRatio"`
	LTVCeilingPct        float64  `json:"ltvCeilingPct"`
	MinDeposit           float64  `json:"minDeposit"`
	DueSoonThresholdDays int      `json:"dueSoonThresholdDays"`
	DefaultInterestRate  float64  `json:"defaultInterestRate"`
	TermPresets          []int    `json:"termPresets"`
	AssetTypes           []string `json:"assetTypes"`
}
