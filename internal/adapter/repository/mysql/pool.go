package mysql

import (
	"context"

	"privylend-backend/internal/domain/counterparty"

	"gorm.io/gorm"
)

type PoolRepository struct{ db *gorm.DB }

func NewPoolRepository(db *gorm.DB) *PoolRepository { return &PoolRepository{db: db} }

func (r *PoolRepository) Create(ctx context.Context, p *counterparty.Pool) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PoolRepository) List(ctx context.Context) ([]counterparty.Pool, error) {
	var out []counterparty.Pool
	res := r.db.WithContext(ctx).Order("available_funds DESC, id ASC").Find(&out)
	return out, res.Error
}
