package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	// GetByLoanIDForUpdate locks the row for the rest of the transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// GetOutstandingByCollateralID returns the newest Active or DueSoon loan
	// secured by the collateral.
	GetOutstandingByCollateralID(ctx context.Context, collateralID string) (*Loan, error)
	ListByBorrower(ctx context.Context, borrower string) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}
