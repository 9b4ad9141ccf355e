package lending

import (
	"context"
	"errors"
	"fmt"

	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/infrastructure/cache"
	"privylend-backend/pkg/dateutil"

	"github.com/sirupsen/logrus"
)

const noticeDefaults = "The ledger is unreachable. Showing demo data; changes cannot be submitted until it is back."

// load reads a party's book from the ledger. When the ledger is unreachable
// it serves the cached snapshot, then the default dataset, and says so.
func (u *Usecase) load(ctx context.Context, party string) (ledger.Dataset, Freshness, error) {
	now := u.now()
	ds, err := u.fetch(ctx, party)
	if err == nil {
		u.remember(ctx, party, ds)
		return ds, Freshness{AsOf: now}, nil
	}
	if !isConnectivity(err) {
		return ledger.Dataset{}, Freshness{}, err
	}

	log := u.log.WithError(err).WithField("party", party)
	if u.snapshots != nil {
		snap, cerr := u.snapshots.Get(ctx, party)
		switch {
		case cerr == nil:
			log.Warn("ledger unreachable, serving cached snapshot")
			u.rec.Fallback("cache")
			return snap.Dataset, Freshness{
				Stale:  true,
				Notice: fmt.Sprintf("The ledger is unreachable. Showing data from %s.", dateutil.Format(snap.FetchedAt)),
				AsOf:   snap.FetchedAt,
			}, nil
		case !errors.Is(cerr, cache.ErrMiss):
			log.WithField("cache_error", cerr.Error()).Warn("snapshot cache read failed")
		}
	}
	log.Warn("ledger unreachable, serving default dataset")
	u.rec.Fallback("defaults")
	return ledger.DefaultDataset(party), Freshness{Stale: true, Notice: noticeDefaults, AsOf: now}, nil
}

func (u *Usecase) fetch(ctx context.Context, party string) (ledger.Dataset, error) {
	accts, err := u.gw.ListCollateralAccounts(ctx, party)
	if err != nil {
		return ledger.Dataset{}, err
	}
	loans, err := u.gw.ListLoans(ctx, party)
	if err != nil {
		return ledger.Dataset{}, err
	}
	pools, err := u.gw.ListLendingCounterparties(ctx)
	if err != nil {
		return ledger.Dataset{}, err
	}
	return ledger.Dataset{Collateral: accts, Loans: loans, Pools: pools}, nil
}

// Refresh re-reads a party's book from the ledger into the snapshot cache.
func (u *Usecase) Refresh(ctx context.Context, party string) error {
	ds, err := u.fetch(ctx, party)
	if err != nil {
		return err
	}
	u.remember(ctx, party, ds)
	return nil
}

func (u *Usecase) remember(ctx context.Context, party string, ds ledger.Dataset) {
	if u.snapshots == nil {
		return
	}
	log := u.log.WithField("party", party)
	if err := u.snapshots.Put(ctx, party, cache.Snapshot{Dataset: ds, FetchedAt: u.now()}); err != nil {
		log.WithError(err).Warn("snapshot cache write failed")
	}
	if err := u.snapshots.TrackParty(ctx, party); err != nil {
		log.WithError(err).Debug("snapshot party tracking failed")
	}
}

func (u *Usecase) Portfolio(ctx context.Context, party string) (*PortfolioDTO, error) {
	ds, fresh, err := u.load(ctx, party)
	if err != nil {
		return nil, err
	}
	now := u.now()
	out := &PortfolioDTO{
		Party:      party,
		Collateral: make([]CollateralDTO, 0, len(ds.Collateral)),
		Loans:      make([]LoanDTO, 0, len(ds.Loans)),
		Pools:      make([]PoolDTO, 0, len(ds.Pools)),
		Summary:    summaryDTO(u.engine.Summarize(ds.Collateral, ds.Loans, now)),
		Freshness:  fresh,
	}
	for _, a := range ds.Collateral {
		out.Collateral = append(out.Collateral, u.collateralDTO(a))
	}
	for _, l := range ds.Loans {
		out.Loans = append(out.Loans, u.loanDTO(l, now))
	}
	for _, p := range ds.Pools {
		out.Pools = append(out.Pools, poolDTO(p))
	}
	if fresh.Stale {
		u.log.WithFields(logrus.Fields{"party": party, "as_of": fresh.AsOf}).Debug("portfolio served stale")
	}
	return out, nil
}

func (u *Usecase) Collateral(ctx context.Context, party string) (*CollateralListDTO, error) {
	ds, fresh, err := u.load(ctx, party)
	if err != nil {
		return nil, err
	}
	out := &CollateralListDTO{Items: make([]CollateralDTO, 0, len(ds.Collateral)), Freshness: fresh}
	for _, a := range ds.Collateral {
		out.Items = append(out.Items, u.collateralDTO(a))
	}
	return out, nil
}

func (u *Usecase) Loans(ctx context.Context, party string) (*LoanListDTO, error) {
	ds, fresh, err := u.load(ctx, party)
	if err != nil {
		return nil, err
	}
	now := u.now()
	out := &LoanListDTO{Items: make([]LoanDTO, 0, len(ds.Loans)), Freshness: fresh}
	for _, l := range ds.Loans {
		out.Items = append(out.Items, u.loanDTO(l, now))
	}
	return out, nil
}
