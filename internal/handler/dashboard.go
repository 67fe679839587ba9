package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/nyumba/waterboard/internal/domain"
	"github.com/nyumba/waterboard/internal/service"
	customError "github.com/nyumba/waterboard/pkg/errors"
	"github.com/nyumba/waterboard/pkg/response"
	"github.com/nyumba/waterboard/pkg/utils"
)

type DashboardHandler struct {
	service   *service.DashboardService
	validator *validator.Validate
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	v := validator.New()
	registerDecimalValidations(v)
	return &DashboardHandler{
		service:   svc,
		validator: v,
	}
}

// registerDecimalValidations wires the decimal_* tags used on the request
// DTOs, since validator has no native shopspring/decimal support.
func registerDecimalValidations(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	mustRegister("decimal_gt", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return d.GreaterThan(bound)
	})

	mustRegister("decimal_gte", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return d.GreaterThanOrEqual(bound)
	})

	mustRegister("decimal_gtefield", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		other := fl.Parent()
		if other.Kind() == reflect.Ptr {
			other = other.Elem()
		}
		field := other.FieldByName(fl.Param())
		if !field.IsValid() {
			return false
		}
		od, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return d.GreaterThanOrEqual(od)
	})
}

// GetStats serves the global dashboard totals.
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Stats())
}

// GetMonthly serves the month partitions, newest first.
func (h *DashboardHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Monthly())
}

// ListReadings serves readings filtered by ?status=, sorted most recent first.
func (h *DashboardHandler) ListReadings(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", domain.FilterAll, domain.StatusPaid, domain.StatusPartial, domain.StatusUnpaid:
	default:
		response.BadRequest(w, "Unknown status filter", customError.WrapInvalidPaymentStatus(status))
		return
	}
	response.Success(w, h.service.Readings(status))
}

// CreateReading creates a reading upstream and reloads the snapshot.
func (h *DashboardHandler) CreateReading(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveReadingRequest
	if !h.decode(w, r, &req) {
		return
	}

	created, err := h.service.CreateReading(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.Created(w, created)
}

// UpdateReading updates a reading upstream and reloads the snapshot.
func (h *DashboardHandler) UpdateReading(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(mux.Vars(r)["id"])

	var req domain.SaveReadingRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateReading(r.Context(), id, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.Success(w, updated)
}

// DeleteReading deletes a reading upstream and reloads the snapshot.
func (h *DashboardHandler) DeleteReading(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(mux.Vars(r)["id"])

	if err := h.service.DeleteReading(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	response.Success(w, map[string]string{"deleted": id.String()})
}

// SuggestedPayment serves the record-payment prefill: the remaining balance.
func (h *DashboardHandler) SuggestedPayment(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(mux.Vars(r)["id"])

	amount, err := h.service.SuggestedPaymentAmount(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.Success(w, map[string]string{
		"reading_id":       id.String(),
		"suggested_amount": utils.FormatAmount(amount),
	})
}

// RecordPayment records an operator payment against a reading.
func (h *DashboardHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(mux.Vars(r)["id"])

	var req domain.RecordPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), id, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.Created(w, payment)
}

// UpdateStatus performs the quick status change flow.
func (h *DashboardHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(mux.Vars(r)["id"])

	var req domain.QuickStatusUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.UpdatePaymentStatus(r.Context(), id, &req); err != nil {
		h.respondError(w, err)
		return
	}
	response.Success(w, map[string]string{
		"reading_id": id.String(),
		"status":     req.Status,
	})
}

// Refresh forces a full snapshot reload.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	stats := h.service.Stats()
	response.Success(w, map[string]interface{}{
		"loaded_at":      h.service.LoadedAt(),
		"total_readings": stats.TotalReadings,
	})
}

func (h *DashboardHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return false
	}
	return true
}

// respondError maps business errors onto HTTP statuses. Upstream failures
// collapse into one uniform 502 regardless of what the remote returned.
func (h *DashboardHandler) respondError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		switch be.Code {
		case customError.ErrCodeReadingNotFound:
			response.NotFound(w, be.Message)
			return
		case customError.ErrCodeInvalidPaymentAmount,
			customError.ErrCodePaymentExceedsOutstanding,
			customError.ErrCodeInvalidPaymentStatus:
			response.ErrorWithCode(w, http.StatusBadRequest, be.Code, be.Message, be.Err)
			return
		case customError.ErrCodeUpstreamError:
			response.BadGateway(w, "Operation failed, please retry")
			return
		}
	}
	response.InternalServerError(w, "Unexpected error", err)
}
