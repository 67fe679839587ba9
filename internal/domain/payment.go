package domain

import (
	"github.com/shopspring/decimal"
)

// Payment methods accepted by the upstream API.
const (
	MethodCash         = "cash"
	MethodMpesa        = "mpesa"
	MethodCheck        = "check"
	MethodBankTransfer = "bank_transfer"
	MethodCreditCard   = "credit_card"
	MethodOnline       = "online"
	MethodOther        = "other"
)

// Payment is one recorded payment event against a reading's balance. Payments
// are created only; no edit or delete is surfaced anywhere.
type Payment struct {
	ID             ID              `json:"id"`
	MeterReadingID ID              `json:"meter_reading_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    Date            `json:"payment_date"`
	Method         string          `json:"payment_method"`
	Notes          string          `json:"notes"`
}

// RecordPaymentRequest is an operator's payment entry against one reading.
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
	PaymentDate Date            `json:"paymentDate" validate:"required"`
	Method      string          `json:"method" validate:"required,oneof=cash mpesa check bank_transfer credit_card online other"`
	Notes       string          `json:"notes"`
}

// CreatePaymentRequest is the upstream body for POST /api/payments.
type CreatePaymentRequest struct {
	MeterReadingID ID              `json:"meterReadingId"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    Date            `json:"paymentDate"`
	Method         string          `json:"method"`
	Notes          string          `json:"notes"`
}
