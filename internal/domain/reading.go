package domain

import (
	"github.com/shopspring/decimal"
)

// Payment status values as stored on a reading. Status is maintained by the
// mutation flows and trusted as stored, never re-derived from paid_amount.
const (
	StatusUnpaid  = "unpaid"
	StatusPartial = "partial"
	StatusPaid    = "paid"
)

// FilterAll is the status filter value that passes every reading through.
const FilterAll = "all"

// MeterReading is one billing period for one apartment unit. The derived
// fields (units_consumed, total_amount) are computed server-side and trusted.
type MeterReading struct {
	ID              ID              `json:"id"`
	UnitNumber      string          `json:"unit_number"`
	PreviousReading decimal.Decimal `json:"previous_reading"`
	CurrentReading  decimal.Decimal `json:"current_reading"`
	UnitsConsumed   decimal.Decimal `json:"units_consumed"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	PaymentStatus   string          `json:"payment_status"`
	ReadingDate     Date            `json:"reading_date"`
	DueDate         Date            `json:"due_date"`
	Payments        []Payment       `json:"payments"`
}

// Outstanding returns the unpaid balance on this reading.
func (r *MeterReading) Outstanding() decimal.Decimal {
	return r.TotalAmount.Sub(r.PaidAmount)
}

// DTOs for requests and responses

// SaveReadingRequest is the body for creating or updating a reading. The
// upstream API takes camelCase fields here, unlike the stored entities.
type SaveReadingRequest struct {
	UnitNumber      string          `json:"unitNumber" validate:"required"`
	PreviousReading decimal.Decimal `json:"previousReading" validate:"decimal_gte=0"`
	CurrentReading  decimal.Decimal `json:"currentReading" validate:"decimal_gtefield=PreviousReading"`
	PricePerUnit    decimal.Decimal `json:"pricePerUnit" validate:"required,decimal_gt=0"`
	ReadingDate     Date            `json:"readingDate" validate:"required"`
	DueDate         Date            `json:"dueDate" validate:"required"`
}

// QuickStatusUpdateRequest carries an operator's quick status change.
// PartialAmount is only consulted when Status is "partial". PaymentDate and
// Notes feed the synthetic payment record when a positive delta is recorded.
type QuickStatusUpdateRequest struct {
	Status        string          `json:"status" validate:"required,oneof=unpaid partial paid"`
	PartialAmount decimal.Decimal `json:"partialAmount"`
	PaymentDate   Date            `json:"paymentDate"`
	Notes         string          `json:"notes"`
}

// UpdatePaymentStatusRequest is the upstream body for the dedicated
// payment-status endpoint. This one is snake_case on the wire.
type UpdatePaymentStatusRequest struct {
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentStatus string          `json:"payment_status"`
}
