package ledger

import (
	"time"

	"privylend-backend/internal/domain/collateral"
	"privylend-backend/internal/domain/counterparty"
	"privylend-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// Dataset is a full snapshot of one party's book plus the lending pools.
type Dataset struct {
	Collateral []collateral.Account `json:"collateral"`
	Loans      []loan.Loan          `json:"loans"`
	Pools      []counterparty.Pool  `json:"pools"`
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// DefaultDataset is the demo book shown when nothing better is available. It
// seeds empty local stores and backs reads when the ledger is unreachable and
// no cached snapshot exists.
func DefaultDataset(owner string) Dataset {
	lock2 := date(2024, 12, 1)
	lock4 := date(2024, 5, 1)
	return Dataset{
		Collateral: []collateral.Account{
			{CollateralID: "1", Owner: owner, AssetType: collateral.AssetCryptocurrency, Value: decimal.NewFromInt(150_000), Status: collateral.StatusAvailable},
			{CollateralID: "2", Owner: owner, AssetType: collateral.AssetRealEstate, Value: decimal.NewFromInt(250_000), Status: collateral.StatusLocked, LockDate: &lock2},
			{CollateralID: "3", Owner: owner, AssetType: collateral.AssetSecurities, Value: decimal.NewFromInt(130_000), Status: collateral.StatusAvailable},
			{CollateralID: "4", Owner: owner, AssetType: collateral.AssetCommodities, Value: decimal.NewFromInt(300_000), Status: collateral.StatusLocked, LockDate: &lock4},
		},
		Loans: []loan.Loan{
			{
				LoanID: "1", CollateralID: "2", Borrower: owner, Lender: DefaultPools()[0].Owner,
				Principal: decimal.NewFromInt(100_000), InterestRate: decimal.NewFromInt(5), TermDays: 365,
				StartDate: lock2, DueDate: date(2025, 12, 1),
				Status: loan.StatusActive, TotalOwed: decimal.NewFromInt(105_000),
			},
			{
				LoanID: "2", CollateralID: "4", Borrower: owner, Lender: DefaultPools()[1].Owner,
				Principal: decimal.NewFromInt(180_000), InterestRate: decimal.NewFromInt(5), TermDays: 730,
				StartDate: lock4, DueDate: date(2026, 5, 1),
				Status: loan.StatusActive, TotalOwed: decimal.NewFromInt(189_000),
			},
		},
		Pools: DefaultPools(),
	}
}

func DefaultPools() []counterparty.Pool {
	return []counterparty.Pool{
		{PoolID: "pool-1", Owner: "LenderA", Name: "Institutional Credit Pool", AvailableFunds: decimal.NewFromInt(5_000_000)},
		{PoolID: "pool-2", Owner: "LenderB", Name: "Private Markets Pool", AvailableFunds: decimal.NewFromInt(2_500_000)},
	}
}
