package ledger

import (
	"context"
	"errors"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var (
	// ErrConnectivity marks a ledger that could not be reached. Reads fall back
	// to cached data on it; writes surface it to the user.
	ErrConnectivity = errors.New("ledger unreachable")
	// ErrRejected is a ledger-side refusal of a well-formed command.
	ErrRejected = errors.New("ledger rejected command")
	ErrNotFound = errors.New("ledger entity not found")
)

type NewCollateral struct {
	Owner     string
	AssetType collateral.AssetType
	Value     decimal.Decimal
}

// LoanRequest carries the origination the engine has already approved. The
// gateway commits the loan and the collateral lock together.
type LoanRequest struct {
	Borrower     string
	Lender       string
	CollateralID string
	Amount       decimal.Decimal
	TermDays     int
	InterestRate decimal.Decimal
}

// Gateway is the persistence/ledger boundary. Loans come back with their
// stored status; callers derive the visible one.
type Gateway interface {
	ListCollateralAccounts(ctx context.Context, owner string) ([]collateral.Account, error)
	ListLoans(ctx context.Context, borrower string) ([]loan.Loan, error)
	CreateCollateralAccount(ctx context.Context, p NewCollateral) (string, error)
	CreateLoanRequest(ctx context.Context, p LoanRequest) (string, error)
	Repay(ctx context.Context, loanID string, amount decimal.Decimal) error
	WithdrawCollateral(ctx context.Context, collateralID string) error
	// MarkDefault is the lender's action on an outstanding loan it funded.
	MarkDefault(ctx context.Context, lender, loanID string) error
	ListLendingCounterparties(ctx context.Context) ([]counterparty.Pool, error)
	// PendingOrigination is true when CreateLoanRequest returns the id of a
	// request awaiting the lender rather than of a live loan.
	PendingOrigination() bool
}
