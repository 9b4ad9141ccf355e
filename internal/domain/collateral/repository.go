package collateral

import "context"

type Repository interface {
	Create(ctx context.Context, a *Account) error
	// GetByCollateralIDForUpdate locks the row for the rest of the transaction.
	GetByCollateralIDForUpdate(ctx context.Context, collateralID string) (*Account, error)
	ListByOwner(ctx context.Context, owner string) ([]Account, error)
	Save(ctx context.Context, a *Account) error
	Delete(ctx context.Context, a *Account) error
	Count(ctx context.Context) (int64, error)
}
