package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"privylend-backend/internal/adapter/repository/mysql"
	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/domain/loan"
	"privylend-backend/internal/domain/uow"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newGateway(t *testing.T) *Gateway {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := mysql.AutoMigrateSQLite(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	repos := uow.Repos{
		Collateral: mysql.NewCollateralRepository(db),
		Loans:      mysql.NewLoanRepository(db),
		Pools:      mysql.NewPoolRepository(db),
	}
	return New(mysql.NewGormUoW(db), repos, lifecycle.New(lifecycle.DefaultParams()),
		WithClock(func() time.Time { return fixedNow }))
}

func deposit(t *testing.T, g *Gateway, owner string, value int64) string {
	t.Helper()
	id, err := g.CreateCollateralAccount(context.Background(), ledger.NewCollateral{
		Owner: owner, AssetType: collateral.AssetSecurities, Value: decimal.NewFromInt(value),
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	return id
}

func TestGateway_DepositAndList(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()

	id := deposit(t, g, "alice", 20_000)
	if len(id) != 32 {
		t.Fatalf("expected 32-char id, got %q", id)
	}
	deposit(t, g, "bob", 5_000)

	got, err := g.ListCollateralAccounts(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].CollateralID != id || got[0].Status != collateral.StatusAvailable {
		t.Fatalf("unexpected accounts: %+v", got)
	}
}

func TestGateway_DepositBelowMinimum(t *testing.T) {
	g := newGateway(t)
	_, err := g.CreateCollateralAccount(context.Background(), ledger.NewCollateral{
		Owner: "alice", AssetType: collateral.AssetSecurities, Value: decimal.NewFromInt(999),
	})
	if !errors.Is(err, lifecycle.ErrBelowMinimumDeposit) {
		t.Fatalf("expected BelowMinimumDeposit, got %v", err)
	}
}

func TestGateway_OriginateRepayWithdraw(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()
	cid := deposit(t, g, "alice", 20_000)

	loanID, err := g.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower: "alice", Lender: "LenderA", CollateralID: cid,
		Amount: decimal.NewFromInt(10_000), TermDays: 365, InterestRate: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("originate: %v", err)
	}

	accts, _ := g.ListCollateralAccounts(ctx, "alice")
	if accts[0].Status != collateral.StatusLocked || accts[0].LockDate == nil {
		t.Fatalf("expected locked collateral, got %+v", accts[0])
	}
	loans, _ := g.ListLoans(ctx, "alice")
	if len(loans) != 1 || loans[0].LoanID != loanID || loans[0].Lender != "LenderA" {
		t.Fatalf("unexpected loans: %+v", loans)
	}
	if !loans[0].TotalOwed.Equal(decimal.NewFromInt(10_500)) {
		t.Fatalf("total owed = %s", loans[0].TotalOwed)
	}

	// locked collateral can back neither a second loan nor a withdrawal
	_, err = g.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower: "alice", CollateralID: cid, Amount: decimal.NewFromInt(1_000), TermDays: 90,
	})
	if !errors.Is(err, lifecycle.ErrCollateralUnavailable) {
		t.Fatalf("expected CollateralUnavailable, got %v", err)
	}
	if err := g.WithdrawCollateral(ctx, cid); !errors.Is(err, lifecycle.ErrCollateralUnavailable) {
		t.Fatalf("expected CollateralUnavailable on withdraw, got %v", err)
	}

	if err := g.Repay(ctx, loanID, decimal.NewFromInt(10_000)); !errors.Is(err, lifecycle.ErrPartialRepaymentUnsupported) {
		t.Fatalf("expected PartialRepaymentUnsupported, got %v", err)
	}
	if err := g.Repay(ctx, loanID, decimal.NewFromInt(10_500)); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if err := g.Repay(ctx, loanID, decimal.NewFromInt(10_500)); !errors.Is(err, lifecycle.ErrLoanNotActive) {
		t.Fatalf("expected LoanNotActive on second repay, got %v", err)
	}

	loans, _ = g.ListLoans(ctx, "alice")
	if loans[0].Status != loan.StatusRepaid || loans[0].RepaidAt == nil {
		t.Fatalf("expected repaid loan, got %+v", loans[0])
	}

	if err := g.WithdrawCollateral(ctx, cid); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	accts, _ = g.ListCollateralAccounts(ctx, "alice")
	if len(accts) != 0 {
		t.Fatalf("expected no accounts after withdraw, got %d", len(accts))
	}
}

func TestGateway_RepayStoredCents(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()
	cid := deposit(t, g, "alice", 250_000)

	loanID, err := g.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower: "alice", Lender: "LenderA", CollateralID: cid,
		Amount: decimal.NewFromInt(100_000), TermDays: 100, InterestRate: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("originate: %v", err)
	}
	loans, _ := g.ListLoans(ctx, "alice")
	if !loans[0].TotalOwed.Equal(decimal.RequireFromString("101369.86")) {
		t.Fatalf("stored total owed = %s", loans[0].TotalOwed)
	}
	if err := g.Repay(ctx, loanID, decimal.NewFromFloat(101369.86)); err != nil {
		t.Fatalf("repay stored total: %v", err)
	}
}

func TestGateway_OriginationRejectedLeavesCollateralAvailable(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()
	cid := deposit(t, g, "alice", 10_000)

	_, err := g.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower: "alice", CollateralID: cid, Amount: decimal.NewFromInt(7_001), TermDays: 90,
	})
	if !errors.Is(err, lifecycle.ErrLtvExceeded) {
		t.Fatalf("expected LtvExceeded, got %v", err)
	}
	accts, _ := g.ListCollateralAccounts(ctx, "alice")
	if accts[0].Status != collateral.StatusAvailable {
		t.Fatalf("collateral must stay available, got %s", accts[0].Status)
	}
	loans, _ := g.ListLoans(ctx, "alice")
	if len(loans) != 0 {
		t.Fatalf("expected no loans, got %d", len(loans))
	}
}

// plantLoan writes an outstanding loan straight into the store, bypassing the
// engine, so the collateral/loan pairing can be made inconsistent.
func plantLoan(t *testing.T, g *Gateway, loanID, collateralID string, start time.Time) {
	t.Helper()
	l := loan.Loan{
		LoanID: loanID, CollateralID: collateralID, Borrower: "alice",
		Principal: decimal.NewFromInt(1_000), InterestRate: decimal.NewFromInt(5), TermDays: 365,
		StartDate: start, DueDate: start.AddDate(1, 0, 0),
		Status: loan.StatusActive, TotalOwed: decimal.NewFromInt(1_050),
	}
	if err := g.repos.Loans.Create(context.Background(), &l); err != nil {
		t.Fatalf("plant loan: %v", err)
	}
}

func TestGateway_AvailableCollateralWithOutstandingLoan(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()
	cid := deposit(t, g, "alice", 20_000)
	plantLoan(t, g, "l-stray", cid, fixedNow.AddDate(0, -1, 0))

	if err := g.WithdrawCollateral(ctx, cid); !errors.Is(err, lifecycle.ErrCollateralUnavailable) {
		t.Fatalf("withdraw: expected CollateralUnavailable, got %v", err)
	}
	_, err := g.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower: "alice", CollateralID: cid, Amount: decimal.NewFromInt(1_000), TermDays: 90,
	})
	if !errors.Is(err, lifecycle.ErrCollateralUnavailable) {
		t.Fatalf("originate: expected CollateralUnavailable, got %v", err)
	}

	accts, _ := g.ListCollateralAccounts(ctx, "alice")
	if len(accts) != 1 || accts[0].Status != collateral.StatusAvailable {
		t.Fatalf("collateral must be untouched, got %+v", accts)
	}
}

func TestGateway_RepayRejectsLoanNotHoldingCollateral(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()
	cid := deposit(t, g, "alice", 20_000)

	loanID, err := g.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower: "alice", CollateralID: cid, Amount: decimal.NewFromInt(10_000), TermDays: 365, InterestRate: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("originate: %v", err)
	}
	// a newer outstanding loan on the same collateral now holds the lock
	plantLoan(t, g, "l-newer", cid, fixedNow.AddDate(0, 0, 1))

	if err := g.Repay(ctx, loanID, decimal.NewFromInt(10_500)); !errors.Is(err, lifecycle.ErrCollateralMismatch) {
		t.Fatalf("expected CollateralMismatch, got %v", err)
	}
	if err := g.Repay(ctx, "l-newer", decimal.NewFromInt(1_050)); err != nil {
		t.Fatalf("repaying the holding loan: %v", err)
	}
}

func TestGateway_MarkDefault(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()
	cid := deposit(t, g, "alice", 20_000)
	loanID, err := g.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower: "alice", Lender: "LenderA", CollateralID: cid,
		Amount: decimal.NewFromInt(10_000), TermDays: 365, InterestRate: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("originate: %v", err)
	}

	// only the funding lender sees the loan
	for _, p := range []string{"alice", "LenderB"} {
		if err := g.MarkDefault(ctx, p, loanID); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", p, err)
		}
	}
	if err := g.MarkDefault(ctx, "LenderA", loanID); err != nil {
		t.Fatalf("mark default: %v", err)
	}

	loans, _ := g.ListLoans(ctx, "alice")
	if loans[0].Status != loan.StatusDefaulted {
		t.Fatalf("status = %s, want Defaulted", loans[0].Status)
	}
	accts, _ := g.ListCollateralAccounts(ctx, "alice")
	if accts[0].Status != collateral.StatusLocked {
		t.Fatalf("defaulted collateral must stay locked, got %s", accts[0].Status)
	}

	if err := g.MarkDefault(ctx, "LenderA", loanID); !errors.Is(err, lifecycle.ErrLoanNotActive) {
		t.Fatalf("second default: expected LoanNotActive, got %v", err)
	}
	if err := g.Repay(ctx, loanID, decimal.NewFromInt(10_500)); !errors.Is(err, lifecycle.ErrLoanNotActive) {
		t.Fatalf("repay defaulted: expected LoanNotActive, got %v", err)
	}
	if g.PendingOrigination() {
		t.Fatal("store originations are immediate")
	}
}

func TestGateway_NotFound(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()

	if err := g.Repay(ctx, "missing", decimal.NewFromInt(1)); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("repay: expected ErrNotFound, got %v", err)
	}
	if err := g.WithdrawCollateral(ctx, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("withdraw: expected ErrNotFound, got %v", err)
	}

	// someone else's collateral is invisible
	cid := deposit(t, g, "bob", 5_000)
	_, err := g.CreateLoanRequest(ctx, ledger.LoanRequest{
		Borrower: "alice", CollateralID: cid, Amount: decimal.NewFromInt(1_000), TermDays: 90,
	})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("originate: expected ErrNotFound, got %v", err)
	}
}

func TestGateway_SeedOnce(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()

	if err := g.Seed(ctx, "alice"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := g.Seed(ctx, "alice"); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	accts, _ := g.ListCollateralAccounts(ctx, "alice")
	if len(accts) != 4 {
		t.Fatalf("expected 4 seeded accounts, got %d", len(accts))
	}
	loans, _ := g.ListLoans(ctx, "alice")
	if len(loans) != 2 {
		t.Fatalf("expected 2 seeded loans, got %d", len(loans))
	}
	pools, err := g.ListLendingCounterparties(ctx)
	if err != nil || len(pools) != 2 {
		t.Fatalf("expected 2 pools, got %d (%v)", len(pools), err)
	}
	if pools[0].PoolID != "pool-1" {
		t.Fatalf("pools should be ordered by available funds, got %s first", pools[0].PoolID)
	}
}
