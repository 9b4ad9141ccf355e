package mysql

import (
	"context"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Collateral: &CollateralRepository{db: tx},
		Loans:      &LoanRepository{db: tx},
		Pools:      &PoolRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinCollateralTx(ctx context.Context, collateralID string, fn func(r uow.Repos, a *collateral.Account) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the collateral row up-front so two originations cannot both see it Available
		a, err := r.Collateral.GetByCollateralIDForUpdate(ctx, collateralID)
		if err != nil {
			return err
		}
		return fn(r, a)
	})
}
