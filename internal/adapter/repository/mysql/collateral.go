package mysql

import (
	"context"

	collateralDomain "privylend-backend/internal/domain/collateral"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CollateralRepository struct{ db *gorm.DB }

func NewCollateralRepository(db *gorm.DB) *CollateralRepository {
	return &CollateralRepository{db: db}
}

func (r *CollateralRepository) Create(ctx context.Context, a *collateralDomain.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *CollateralRepository) Save(ctx context.Context, a *collateralDomain.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// Delete is a soft delete; withdrawn accounts keep their row.
func (r *CollateralRepository) Delete(ctx context.Context, a *collateralDomain.Account) error {
	return r.db.WithContext(ctx).Delete(a).Error
}

func (r *CollateralRepository) GetByCollateralIDForUpdate(ctx context.Context, collateralID string) (*collateralDomain.Account, error) {
	var out collateralDomain.Account
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("collateral_id = ?", collateralID).
		First(&out)
	return &out, res.Error
}

func (r *CollateralRepository) ListByOwner(ctx context.Context, owner string) ([]collateralDomain.Account, error) {
	var out []collateralDomain.Account
	res := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *CollateralRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&collateralDomain.Account{}).Count(&n)
	return n, res.Error
}
