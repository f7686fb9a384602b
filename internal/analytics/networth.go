package analytics

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// NetWorth is total asset value minus total liability balance.
func (e *Engine) NetWorth(ctx context.Context, householdID string) (domain.NetWorth, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return domain.NetWorth{}, err
	}

	assets, err := e.store.ListAssets(ctx, householdID)
	if err != nil {
		return domain.NetWorth{}, fmt.Errorf("NetWorth: list assets: %w", err)
	}
	liabilities, err := e.store.ListLiabilities(ctx, householdID)
	if err != nil {
		return domain.NetWorth{}, fmt.Errorf("NetWorth: list liabilities: %w", err)
	}

	var nw domain.NetWorth
	for _, a := range assets {
		nw.Assets += a.Value
	}
	for _, l := range liabilities {
		nw.Liabilities += l.Balance
	}
	nw.Net = nw.Assets - nw.Liabilities
	return nw, nil
}
