package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nyumba/waterboard/internal/domain"
	"github.com/nyumba/waterboard/pkg/utils"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeStats derives the global dashboard totals from a reading collection.
// Missing amounts are decimal zero values, so they sum as zero. The collection
// rate is a percentage and is 0 when there is no revenue; it is not clamped,
// so an overpaid book exceeds 100.
func ComputeStats(readings []domain.MeterReading) domain.DashboardStats {
	var revenue, paid decimal.Decimal
	for i := range readings {
		revenue = revenue.Add(readings[i].TotalAmount)
		paid = paid.Add(readings[i].PaidAmount)
	}

	rate := decimal.Zero
	if revenue.IsPositive() {
		rate = paid.Div(revenue).Mul(oneHundred)
	}

	return domain.DashboardStats{
		TotalReadings:    len(readings),
		TotalRevenue:     revenue,
		TotalPaid:        paid,
		TotalOutstanding: revenue.Sub(paid),
		CollectionRate:   rate,
	}
}

// GroupByMonth partitions readings by the calendar year-month of their
// reading date. Every reading lands in exactly one partition. Partitions are
// ordered newest first by their zero-padded "YYYY-MM" key; readings inside a
// partition are ordered reading-date descending, ties keeping upstream order.
func GroupByMonth(readings []domain.MeterReading) []domain.MonthlySummary {
	grouped := make(map[string]*domain.MonthlySummary)

	for i := range readings {
		r := readings[i]
		key := utils.MonthKey(r.ReadingDate.Time)

		m, ok := grouped[key]
		if !ok {
			m = &domain.MonthlySummary{
				Key:   key,
				Month: utils.MonthLabel(r.ReadingDate.Time),
				Year:  r.ReadingDate.Year(),
			}
			grouped[key] = m
		}

		m.Readings = append(m.Readings, r)
		m.TotalUnits = m.TotalUnits.Add(r.UnitsConsumed)
		m.TotalRevenue = m.TotalRevenue.Add(r.TotalAmount)
		m.TotalPaid = m.TotalPaid.Add(r.PaidAmount)
		m.TotalOutstanding = m.TotalOutstanding.Add(r.TotalAmount.Sub(r.PaidAmount))
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	summaries := make([]domain.MonthlySummary, 0, len(keys))
	for _, key := range keys {
		m := grouped[key]
		if !m.TotalUnits.IsZero() {
			m.AveragePrice = m.TotalRevenue.Div(m.TotalUnits)
		}
		SortByReadingDate(m.Readings)
		summaries = append(summaries, *m)
	}

	return summaries
}

// FilterByStatus returns the readings matching the status filter. "all" (or
// an empty filter) passes the collection through unchanged; anything else is
// an exact string match on payment_status. Filtering is idempotent.
func FilterByStatus(readings []domain.MeterReading, status string) []domain.MeterReading {
	if status == "" || status == domain.FilterAll {
		return readings
	}

	filtered := make([]domain.MeterReading, 0, len(readings))
	for i := range readings {
		if readings[i].PaymentStatus == status {
			filtered = append(filtered, readings[i])
		}
	}
	return filtered
}

// SortByReadingDate orders readings most recent first. The sort is stable so
// equal dates keep their upstream insertion order.
func SortByReadingDate(readings []domain.MeterReading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].ReadingDate.After(readings[j].ReadingDate.Time)
	})
}
