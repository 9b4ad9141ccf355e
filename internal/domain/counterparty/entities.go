package counterparty

import (
	"context"

	"github.com/shopspring/decimal"
)

// Pool is a lending counterparty a borrower can address a loan request to.
type Pool struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	PoolID         string          `gorm:"size:32;uniqueIndex:ux_pools_pool_id" json:"id"`
	Owner          string          `gorm:"size:255" json:"owner"`
	Name           string          `gorm:"size:128" json:"name"`
	AvailableFunds decimal.Decimal `gorm:"type:decimal(20,2)" json:"availableFunds"`
}

func (Pool) TableName() string { return "lending_pools" }

type Repository interface {
	Create(ctx context.Context, p *Pool) error
	List(ctx context.Context) ([]Pool, error)
}
