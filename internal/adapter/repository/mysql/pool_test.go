package mysql

import (
	"context"
	"testing"

	"privylend-backend/internal/domain/counterparty"

	"github.com/shopspring/decimal"
)

func TestPool_CreateAndListByFunds(t *testing.T) {
	db := openTestDB(t)
	repo := NewPoolRepository(db)
	ctx := context.Background()

	for _, p := range []counterparty.Pool{
		{PoolID: "p-small", Owner: "BankA::1220", Name: "Small", AvailableFunds: decimal.NewFromInt(100_000)},
		{PoolID: "p-big", Owner: "BankB::1220", Name: "Big", AvailableFunds: decimal.NewFromInt(5_000_000)},
	} {
		p := p
		if err := repo.Create(ctx, &p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].PoolID != "p-big" {
		t.Fatalf("unexpected list: %+v", list)
	}
}
