package domain

import (
	"github.com/shopspring/decimal"
)

// MonthlySummary is a derived projection of the readings sharing one calendar
// year-month. It is recomputed from the current snapshot on every request and
// has no identity beyond its key ("YYYY-MM").
type MonthlySummary struct {
	Key              string          `json:"key"`
	Month            string          `json:"month"`
	Year             int             `json:"year"`
	Readings         []MeterReading  `json:"readings"`
	TotalUnits       decimal.Decimal `json:"total_units"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	AveragePrice     decimal.Decimal `json:"average_price"`
}

// DashboardStats are the global figures shown on the stat cards.
// CollectionRate is a percentage and may exceed 100 on overpayment.
type DashboardStats struct {
	TotalReadings    int             `json:"total_readings"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	CollectionRate   decimal.Decimal `json:"collection_rate"`
}
