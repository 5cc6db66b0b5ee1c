package rota

import (
	"context"
	"sort"
	"time"

	"rota-go/internal/model"
)

// Coverage thresholds in percent. Values between them, inclusive, are optimal.
const (
	UnderstaffedBelow = 80.0
	OverstaffedAbove  = 120.0
)

type bucketKey struct {
	date string
	hour int
}

// GetCoverageAnalysis aggregates the store's shifts in the date range into hourly buckets.
func (s *RotaService) GetCoverageAnalysis(ctx context.Context, tenantID, storeID string, from, to time.Time) ([]model.CoverageBucket, error) {
	shifts, err := s.ListShifts(ctx, tenantID, storeID, from, to)
	if err != nil {
		return nil, err
	}

	buckets := AnalyzeCoverage(shifts, s.loc)
	s.logger.Debug("coverage analysed", "store", storeID, "shifts", len(shifts), "buckets", len(buckets))
	return buckets, nil
}

// AnalyzeCoverage walks every shift hour by hour, from its start hour
// inclusive to its end hour exclusive, and sums required and scheduled staff
// per (date, hour) in loc. Buckets are returned ordered by date and hour.
func AnalyzeCoverage(shifts []*model.Shift, loc *time.Location) []model.CoverageBucket {
	acc := make(map[bucketKey]*model.CoverageBucket)

	for _, sh := range shifts {
		end := hourOf(sh.EndAt, loc)
		for t := hourOf(sh.StartAt, loc); t.Before(end); t = t.Add(time.Hour) {
			local := t.In(loc)
			key := bucketKey{date: local.Format(DateLayout), hour: local.Hour()}
			b, ok := acc[key]
			if !ok {
				b = &model.CoverageBucket{Date: key.date, Hour: key.hour}
				acc[key] = b
			}
			b.Required += sh.RequiredStaff
			b.Scheduled += len(sh.AssignedUsers)
		}
	}

	buckets := make([]model.CoverageBucket, 0, len(acc))
	for _, b := range acc {
		b.Coverage = coveragePercent(b.Scheduled, b.Required)
		b.Status = ClassifyCoverage(b.Coverage)
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Date != buckets[j].Date {
			return buckets[i].Date < buckets[j].Date
		}
		return buckets[i].Hour < buckets[j].Hour
	})
	return buckets
}

// ClassifyCoverage maps a coverage percentage to a status.
func ClassifyCoverage(coverage float64) model.CoverageStatus {
	switch {
	case coverage < UnderstaffedBelow:
		return model.CoverageUnderstaffed
	case coverage > OverstaffedAbove:
		return model.CoverageOverstaffed
	default:
		return model.CoverageOptimal
	}
}

// coveragePercent treats zero required staff as fully covered.
func coveragePercent(scheduled, required int) float64 {
	if required == 0 {
		return 100
	}
	return float64(scheduled) / float64(required) * 100
}

// hourOf truncates t to the start of its hour in loc.
func hourOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
}
