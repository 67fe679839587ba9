package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMonthKey(t *testing.T) {
	jan := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-01", MonthKey(jan), "month must be zero-padded")
	assert.Equal(t, "2023-12", MonthKey(dec))
	assert.True(t, MonthKey(jan) > MonthKey(dec), "lexicographic order matches chronology")
}

func TestMonthLabel(t *testing.T) {
	feb := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "February 2024", MonthLabel(feb))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "600.00", FormatAmount(decimal.NewFromInt(600)))
	assert.Equal(t, "600.50", FormatAmount(decimal.NewFromFloat(600.5)))
	assert.Equal(t, "0.00", FormatAmount(decimal.Zero))
}

func TestIsDateOverdue(t *testing.T) {
	assert.True(t, IsDateOverdue(time.Now().AddDate(0, 0, -1)))
	assert.False(t, IsDateOverdue(time.Now().AddDate(0, 0, 1)))
}
