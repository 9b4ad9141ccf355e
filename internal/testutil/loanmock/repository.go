package loanmock

import (
	"context"

	domain "privylend-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies loan.Repository.
type Repo struct {
	CreateFn                       func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDForUpdateFn         func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetOutstandingByCollateralIDFn func(ctx context.Context, collateralID string) (*domain.Loan, error)
	ListByBorrowerFn               func(ctx context.Context, borrower string) ([]domain.Loan, error)
	SaveFn                         func(ctx context.Context, l *domain.Loan) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetOutstandingByCollateralID(ctx context.Context, collateralID string) (*domain.Loan, error) {
	if m.GetOutstandingByCollateralIDFn != nil {
		return m.GetOutstandingByCollateralIDFn(ctx, collateralID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrower(ctx context.Context, borrower string) ([]domain.Loan, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrower)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}
