package mysql

import (
	"testing"
	"time"

	collateralDomain "privylend-backend/internal/domain/collateral"
	loanDomain "privylend-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB and migrates ONLY the sqlite-safe schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every pooled connection to :memory: would be a fresh empty database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrateSQLite(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeAccount(collateralID, owner string) *collateralDomain.Account {
	return &collateralDomain.Account{
		CollateralID: collateralID,
		Owner:        owner,
		AssetType:    collateralDomain.AssetCryptocurrency,
		Value:        decimal.NewFromInt(150_000),
		Status:       collateralDomain.StatusAvailable,
	}
}

func makeLoan(loanID, collateralID, borrower string, start time.Time) *loanDomain.Loan {
	return &loanDomain.Loan{
		LoanID:       loanID,
		CollateralID: collateralID,
		Borrower:     borrower,
		Principal:    decimal.NewFromInt(100_000),
		InterestRate: decimal.NewFromInt(5),
		TermDays:     365,
		StartDate:    start,
		DueDate:      start.AddDate(1, 0, 0),
		Status:       loanDomain.StatusActive,
		TotalOwed:    decimal.NewFromInt(105_000),
	}
}
