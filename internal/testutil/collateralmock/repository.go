package collateralmock

import (
	"context"

	domain "privylend-backend/internal/domain/collateral"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies collateral.Repository.
// Getters default to context.Canceled so a missing stub fails loudly.
type Repo struct {
	CreateFn                     func(ctx context.Context, a *domain.Account) error
	GetByCollateralIDForUpdateFn func(ctx context.Context, collateralID string) (*domain.Account, error)
	ListByOwnerFn                func(ctx context.Context, owner string) ([]domain.Account, error)
	SaveFn                       func(ctx context.Context, a *domain.Account) error
	DeleteFn                     func(ctx context.Context, a *domain.Account) error
	CountFn                      func(ctx context.Context) (int64, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Account) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByCollateralIDForUpdate(ctx context.Context, collateralID string) (*domain.Account, error) {
	if m.GetByCollateralIDForUpdateFn != nil {
		return m.GetByCollateralIDForUpdateFn(ctx, collateralID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByOwner(ctx context.Context, owner string) ([]domain.Account, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, owner)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, a *domain.Account) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, a *domain.Account) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, a)
	}
	return nil
}

func (m *Repo) Count(ctx context.Context) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}
