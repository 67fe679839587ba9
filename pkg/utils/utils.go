package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthKey returns the "YYYY-MM" partition key for a date. Zero-padding makes
// lexicographic order match chronological order.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthLabel returns the human month label, e.g. "January 2024".
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

// FormatAmount renders a monetary amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// IsDateOverdue checks if a due date is past the current date.
func IsDateOverdue(dueDate time.Time) bool {
	return time.Now().After(dueDate)
}
