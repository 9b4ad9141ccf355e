package gatewaymock

import (
	"context"
	"errors"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var _ ledger.Gateway = (*Gateway)(nil)

var errUnimplemented = errors.New("gatewaymock: method not implemented")

// Gateway is a function-backed mock that satisfies ledger.Gateway.
// List methods default to empty results; writes default to errUnimplemented.
type Gateway struct {
	ListCollateralAccountsFn    func(ctx context.Context, owner string) ([]collateral.Account, error)
	ListLoansFn                 func(ctx context.Context, borrower string) ([]loan.Loan, error)
	CreateCollateralAccountFn   func(ctx context.Context, p ledger.NewCollateral) (string, error)
	CreateLoanRequestFn         func(ctx context.Context, p ledger.LoanRequest) (string, error)
	RepayFn                     func(ctx context.Context, loanID string, amount decimal.Decimal) error
	WithdrawCollateralFn        func(ctx context.Context, collateralID string) error
	MarkDefaultFn               func(ctx context.Context, lender, loanID string) error
	ListLendingCounterpartiesFn func(ctx context.Context) ([]counterparty.Pool, error)
	// Pending makes PendingOrigination report true.
	Pending bool
}

func (m *Gateway) ListCollateralAccounts(ctx context.Context, owner string) ([]collateral.Account, error) {
	if m.ListCollateralAccountsFn != nil {
		return m.ListCollateralAccountsFn(ctx, owner)
	}
	return nil, nil
}

func (m *Gateway) ListLoans(ctx context.Context, borrower string) ([]loan.Loan, error) {
	if m.ListLoansFn != nil {
		return m.ListLoansFn(ctx, borrower)
	}
	return nil, nil
}

func (m *Gateway) CreateCollateralAccount(ctx context.Context, p ledger.NewCollateral) (string, error) {
	if m.CreateCollateralAccountFn != nil {
		return m.CreateCollateralAccountFn(ctx, p)
	}
	return "", errUnimplemented
}

func (m *Gateway) CreateLoanRequest(ctx context.Context, p ledger.LoanRequest) (string, error) {
	if m.CreateLoanRequestFn != nil {
		return m.CreateLoanRequestFn(ctx, p)
	}
	return "", errUnimplemented
}

func (m *Gateway) Repay(ctx context.Context, loanID string, amount decimal.Decimal) error {
	if m.RepayFn != nil {
		return m.RepayFn(ctx, loanID, amount)
	}
	return errUnimplemented
}

func (m *Gateway) WithdrawCollateral(ctx context.Context, collateralID string) error {
	if m.WithdrawCollateralFn != nil {
		return m.WithdrawCollateralFn(ctx, collateralID)
	}
	return errUnimplemented
}

func (m *Gateway) MarkDefault(ctx context.Context, lender, loanID string) error {
	if m.MarkDefaultFn != nil {
		return m.MarkDefaultFn(ctx, lender, loanID)
	}
	return errUnimplemented
}

func (m *Gateway) PendingOrigination() bool { return m.Pending }

func (m *Gateway) ListLendingCounterparties(ctx context.Context) ([]counterparty.Pool, error) {
	if m.ListLendingCounterpartiesFn != nil {
		return m.ListLendingCounterpartiesFn(ctx)
	}
	return nil, nil
}
