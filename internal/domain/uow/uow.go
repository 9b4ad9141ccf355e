package uow

import (
	"context"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/loan"
)

type Repos struct {
	Collateral collateral.Repository
	Loans      loan.Repository
	Pools      counterparty.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the collateral row first, then pass it in
	WithinCollateralTx(ctx context.Context, collateralID string, fn func(r Repos, a *collateral.Account) error) error
}
