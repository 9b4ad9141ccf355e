package uowmock

import (
	"context"
	"errors"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Unfilled function fields return errUnimplemented.
type UoW struct {
	WithinTxFn           func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinCollateralTxFn func(ctx context.Context, collateralID string, fn func(r uow.Repos, a *collateral.Account) error) error
}

// Passthrough returns a UoW that runs every body directly against repos and
// loads the locked account through repos.Collateral.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinCollateralTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *collateral.Account) error) error {
			a, err := repos.Collateral.GetByCollateralIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, a)
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinCollateralTx(ctx context.Context, collateralID string, fn func(r uow.Repos, a *collateral.Account) error) error {
	if m.WithinCollateralTxFn != nil {
		return m.WithinCollateralTxFn(ctx, collateralID, fn)
	}
	return errUnimplemented
}
