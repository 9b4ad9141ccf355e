package lending

import (
	"context"
	"testing"
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/domain/loan"
	"privylend-backend/internal/infrastructure/cache"
	"privylend-backend/internal/testutil/gatewaymock"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

type countingRecorder struct {
	transitions map[string]int
	fallbacks   map[string]int
}

func newRecorder() *countingRecorder {
	return &countingRecorder{transitions: map[string]int{}, fallbacks: map[string]int{}}
}

func (r *countingRecorder) Transition(name string, err error) {
	if err != nil {
		name += ":err"
	}
	r.transitions[name]++
}
func (r *countingRecorder) Fallback(source string) { r.fallbacks[source]++ }

func newUsecase(t *testing.T, gw *gatewaymock.Gateway, opts ...Option) *Usecase {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(logrus.NewEntry(logger)),
	}
	return NewUsecase(gw, lifecycle.New(lifecycle.DefaultParams()), append(base, opts...)...)
}

func newSnapshotCache(t *testing.T) *cache.SnapshotCache {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewSnapshotCache(rdb, 0)
}

func availableAccount(id, value string) collateral.Account {
	return collateral.Account{
		CollateralID: id,
		Owner:        "alice",
		AssetType:    collateral.AssetCryptocurrency,
		Value:        d(value),
		Status:       collateral.StatusAvailable,
	}
}

func lockedAccount(id, value string) collateral.Account {
	a := availableAccount(id, value)
	lock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.Status = collateral.StatusLocked
	a.LockDate = &lock
	return a
}

func activeLoan(id, collateralID string) loan.Loan {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return loan.Loan{
		LoanID:       id,
		CollateralID: collateralID,
		Borrower:     "alice",
		Principal:    d("10000"),
		InterestRate: d("5"),
		TermDays:     365,
		StartDate:    start,
		DueDate:      start.AddDate(1, 0, 0),
		Status:       loan.StatusActive,
		TotalOwed:    d("10500"),
	}
}

func book(accts []collateral.Account, loans []loan.Loan) *gatewaymock.Gateway {
	return &gatewaymock.Gateway{
		ListCollateralAccountsFn: func(context.Context, string) ([]collateral.Account, error) { return accts, nil },
		ListLoansFn:              func(context.Context, string) ([]loan.Loan, error) { return loans, nil },
		ListLendingCounterpartiesFn: func(context.Context) ([]counterparty.Pool, error) {
			return []counterparty.Pool{{PoolID: "p-1", Owner: "LenderA", Name: "Pool A", AvailableFunds: d("1000000")}}, nil
		},
	}
}
