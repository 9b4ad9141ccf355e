package mysql

import (
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/loan"

	"gorm.io/gorm"
)

// AutoMigrate creates the tables for the MySQL schema (enum columns).
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&collateral.Account{}, &loan.Loan{}, &counterparty.Pool{})
}

// --- SQLite-friendly schema for local persistence (no ENUM) ---

type collateralSQLite struct {
	ID           uint64         `gorm:"primaryKey;column:id"`
	CollateralID string         `gorm:"size:32;uniqueIndex;column:collateral_id"`
	Owner        string         `gorm:"index;column:owner"`
	AssetType    string         `gorm:"type:text;column:asset_type"`
	Value        float64        `gorm:"type:decimal(20,2);column:value"`
	Status       string         `gorm:"type:text;column:status"`
	LockDate     *time.Time     `gorm:"column:lock_date"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index;column:deleted_at"`
}

func (collateralSQLite) TableName() string { return "collateral_accounts" }

type loanSQLite struct {
	ID           uint64         `gorm:"primaryKey;column:id"`
	LoanID       string         `gorm:"size:32;uniqueIndex;column:loan_id"`
	CollateralID string         `gorm:"index;column:collateral_id"`
	Borrower     string         `gorm:"index;column:borrower"`
	Lender       string         `gorm:"column:lender"`
	Principal    float64        `gorm:"type:decimal(20,2);column:principal"`
	InterestRate float64        `gorm:"type:decimal(8,4);column:interest_rate"`
	TermDays     int            `gorm:"column:term_days"`
	StartDate    time.Time      `gorm:"column:start_date"`
	DueDate      time.Time      `gorm:"column:due_date"`
	Status       string         `gorm:"type:text;column:status"`
	TotalOwed    float64        `gorm:"type:decimal(24,8);column:total_owed"`
	RepaidAt     *time.Time     `gorm:"column:repaid_at"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index;column:deleted_at"`
}

func (loanSQLite) TableName() string { return "loans" }

type poolSQLite struct {
	ID             uint64  `gorm:"primaryKey;column:id"`
	PoolID         string  `gorm:"size:32;uniqueIndex;column:pool_id"`
	Owner          string  `gorm:"column:owner"`
	Name           string  `gorm:"column:name"`
	AvailableFunds float64 `gorm:"type:decimal(20,2);column:available_funds"`
}

func (poolSQLite) TableName() string { return "lending_pools" }

// AutoMigrateSQLite creates the same tables with SQLite-compatible column types.
func AutoMigrateSQLite(db *gorm.DB) error {
	return db.AutoMigrate(&collateralSQLite{}, &loanSQLite{}, &poolSQLite{})
}
