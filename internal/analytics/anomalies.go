package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/metrics"
)

// DetectAnomalies compares each category's current-month spend with the mean
// of its monthly totals over the previous six calendar months. Only months in
// which the category had spend count toward the mean. Categories without
// history are skipped; categories with history and no current spend report a
// -100% deviation.
func (e *Engine) DetectAnomalies(ctx context.Context, householdID string) ([]domain.Anomaly, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return nil, err
	}

	now := e.now()
	currentStart := startOfMonth(now)
	currentEnd := endOfMonth(now)
	historyStart := currentStart.AddDate(0, -AnomalyHistoryMonths, 0)
	historyEnd := currentStart.Add(-1)

	current, err := e.store.ListTransactions(ctx, domain.TransactionFilter{
		HouseholdID:  householdID,
		Start:        &currentStart,
		End:          &currentEnd,
		ExpensesOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("DetectAnomalies: current month: %w", err)
	}
	history, err := e.store.ListTransactions(ctx, domain.TransactionFilter{
		HouseholdID:  householdID,
		Start:        &historyStart,
		End:          &historyEnd,
		ExpensesOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("DetectAnomalies: history: %w", err)
	}

	currentTotals := make(map[string]float64)
	for _, tx := range current {
		currentTotals[tx.CategoryOrDefault()] += tx.AbsAmount()
	}

	monthly := make(map[string]map[string]float64)
	for _, tx := range history {
		cat := tx.CategoryOrDefault()
		if monthly[cat] == nil {
			monthly[cat] = make(map[string]float64)
		}
		monthly[cat][tx.PostedAt.In(now.Location()).Format(domain.PeriodLayout)] += tx.AbsAmount()
	}

	categories := make(map[string]struct{}, len(currentTotals)+len(monthly))
	for cat := range currentTotals {
		categories[cat] = struct{}{}
	}
	for cat := range monthly {
		categories[cat] = struct{}{}
	}

	log := logger.FromContext(ctx)
	var out []domain.Anomaly
	for cat := range categories {
		cur := currentTotals[cat]
		avg := mean(monthly[cat])
		if avg <= 0 {
			log.Debug().Str("category", cat).Msg("Skipping anomaly check without history")
			metrics.AnomaliesSkipped.Inc()
			continue
		}
		dev := (cur - avg) / avg * 100
		if math.Abs(dev) <= AnomalyThreshold {
			continue
		}
		out = append(out, domain.Anomaly{
			Category:  cat,
			Current:   cur,
			Average:   avg,
			Deviation: dev,
			Severity:  anomalySeverity(dev),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := math.Abs(out[i].Deviation), math.Abs(out[j].Deviation)
		if di == dj {
			return out[i].Category < out[j].Category
		}
		return di > dj
	})
	return out, nil
}

func mean(months map[string]float64) float64 {
	if len(months) == 0 {
		return 0
	}
	var sum float64
	for _, v := range months {
		sum += v
	}
	return sum / float64(len(months))
}

func anomalySeverity(dev float64) domain.Severity {
	abs := math.Abs(dev)
	switch {
	case abs > AnomalyHighDeviation:
		return domain.SeverityHigh
	case abs > AnomalyMediumDeviation:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
