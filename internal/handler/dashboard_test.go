package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nyumba/waterboard/internal/config"
	"github.com/nyumba/waterboard/internal/domain"
	"github.com/nyumba/waterboard/internal/service"
	"github.com/nyumba/waterboard/pkg/response"
	"github.com/nyumba/waterboard/tests/mocks"
)

func setupTest(t *testing.T, seed []domain.MeterReading) (*mux.Router, *mocks.MockUpstreamClient) {
	t.Helper()

	mockUpstream := new(mocks.MockUpstreamClient)
	svc := service.NewDashboardService(mockUpstream, nil, &config.Config{})

	if seed != nil {
		mockUpstream.On("LoadAll", mock.Anything).Return(seed, nil).Once()
		require.NoError(t, svc.Refresh(context.Background()))
	}

	h := NewDashboardHandler(svc)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/dashboard/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/dashboard/monthly", h.GetMonthly).Methods("GET")
	api.HandleFunc("/readings", h.ListReadings).Methods("GET")
	api.HandleFunc("/readings", h.CreateReading).Methods("POST")
	api.HandleFunc("/readings/{id}", h.UpdateReading).Methods("PUT")
	api.HandleFunc("/readings/{id}", h.DeleteReading).Methods("DELETE")
	api.HandleFunc("/readings/{id}/suggested-payment", h.SuggestedPayment).Methods("GET")
	api.HandleFunc("/readings/{id}/payments", h.RecordPayment).Methods("POST")
	api.HandleFunc("/readings/{id}/status", h.UpdateStatus).Methods("PUT")
	api.HandleFunc("/refresh", h.Refresh).Methods("POST")

	return router, mockUpstream
}

func seedReadings() []domain.MeterReading {
	return []domain.MeterReading{
		{
			ID:            domain.ID("7"),
			UnitNumber:    "B2",
			UnitsConsumed: decimal.NewFromInt(20),
			TotalAmount:   decimal.NewFromInt(1000),
			PaidAmount:    decimal.NewFromInt(400),
			PaymentStatus: domain.StatusPartial,
			ReadingDate:   domain.NewDate(2024, 6, 10),
			Payments:      []domain.Payment{},
		},
	}
}

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var envelope response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestGetStats(t *testing.T) {
	router, _ := setupTest(t, seedReadings())

	rec := doRequest(router, http.MethodGet, "/api/v1/dashboard/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	assert.EqualValues(t, 1, data["total_readings"])
	assert.Equal(t, "1000", data["total_revenue"])
	assert.Equal(t, "600", data["total_outstanding"])
	assert.Equal(t, "40", data["collection_rate"])
}

func TestGetMonthly(t *testing.T) {
	router, _ := setupTest(t, seedReadings())

	rec := doRequest(router, http.MethodGet, "/api/v1/dashboard/monthly", "")

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	months := envelope.Data.([]interface{})
	require.Len(t, months, 1)
	month := months[0].(map[string]interface{})
	assert.Equal(t, "2024-06", month["key"])
	assert.Equal(t, "June 2024", month["month"])
}

func TestListReadings(t *testing.T) {
	router, _ := setupTest(t, seedReadings())

	t.Run("Default filter", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/readings", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Status filter match", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/readings?status=partial", "")
		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.Len(t, envelope.Data.([]interface{}), 1)
	})

	t.Run("Unknown filter rejected", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/readings?status=overdue", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateReadingValidation(t *testing.T) {
	router, mockUpstream := setupTest(t, seedReadings())

	t.Run("Meter running backwards rejected", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/api/v1/readings", `{
			"unitNumber": "C3",
			"previousReading": "120",
			"currentReading": "100",
			"pricePerUnit": "50",
			"readingDate": "2024-06-01",
			"dueDate": "2024-06-15"
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockUpstream.AssertNotCalled(t, "CreateReading", mock.Anything, mock.Anything)
	})

	t.Run("Missing unit number rejected", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/api/v1/readings", `{
			"previousReading": "100",
			"currentReading": "120",
			"pricePerUnit": "50",
			"readingDate": "2024-06-01",
			"dueDate": "2024-06-15"
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Valid reading forwarded", func(t *testing.T) {
		created := seedReadings()[0]
		mockUpstream.On("CreateReading", mock.Anything, mock.MatchedBy(func(req *domain.SaveReadingRequest) bool {
			return req.UnitNumber == "C3" && req.CurrentReading.Equal(decimal.NewFromInt(120))
		})).Return(&created, nil).Once()
		mockUpstream.On("LoadAll", mock.Anything).Return(seedReadings(), nil).Once()

		rec := doRequest(router, http.MethodPost, "/api/v1/readings", `{
			"unitNumber": "C3",
			"previousReading": "100",
			"currentReading": "120",
			"pricePerUnit": "50",
			"readingDate": "2024-06-01",
			"dueDate": "2024-06-15"
		}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		mockUpstream.AssertExpectations(t)
	})
}

func TestSuggestedPayment(t *testing.T) {
	router, _ := setupTest(t, seedReadings())

	rec := doRequest(router, http.MethodGet, "/api/v1/readings/7/suggested-payment", "")

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "600.00", data["suggested_amount"])
}

func TestRecordPaymentEndpoint(t *testing.T) {
	t.Run("Invalid method rejected by validation", func(t *testing.T) {
		router, mockUpstream := setupTest(t, seedReadings())

		rec := doRequest(router, http.MethodPost, "/api/v1/readings/7/payments", `{
			"amount": "100",
			"paymentDate": "2024-06-15",
			"method": "barter"
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockUpstream.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
	})

	t.Run("Over-outstanding amount surfaces business code", func(t *testing.T) {
		router, _ := setupTest(t, seedReadings())

		rec := doRequest(router, http.MethodPost, "/api/v1/readings/7/payments", `{
			"amount": "601",
			"paymentDate": "2024-06-15",
			"method": "cash"
		}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var errResp response.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, "PAYMENT_EXCEEDS_OUTSTANDING", errResp.Code)
	})

	t.Run("Unknown reading is 404", func(t *testing.T) {
		router, _ := setupTest(t, seedReadings())

		rec := doRequest(router, http.MethodPost, "/api/v1/readings/99/payments", `{
			"amount": "100",
			"paymentDate": "2024-06-15",
			"method": "cash"
		}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Valid payment recorded", func(t *testing.T) {
		router, mockUpstream := setupTest(t, seedReadings())

		mockUpstream.On("CreatePayment", mock.Anything, mock.Anything).Return(&domain.Payment{ID: domain.ID("p1")}, nil).Once()
		mockUpstream.On("LoadAll", mock.Anything).Return(seedReadings(), nil).Once()

		rec := doRequest(router, http.MethodPost, "/api/v1/readings/7/payments", `{
			"amount": "600",
			"paymentDate": "2024-06-15",
			"method": "mpesa"
		}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		mockUpstream.AssertExpectations(t)
	})
}

func TestUpdateStatusEndpoint(t *testing.T) {
	t.Run("Unknown status rejected by validation", func(t *testing.T) {
		router, _ := setupTest(t, seedReadings())

		rec := doRequest(router, http.MethodPut, "/api/v1/readings/7/status", `{"status": "overdue"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Quick update to paid", func(t *testing.T) {
		router, mockUpstream := setupTest(t, seedReadings())

		mockUpstream.On("CreatePayment", mock.Anything, mock.MatchedBy(func(req *domain.CreatePaymentRequest) bool {
			return req.Amount.Equal(decimal.NewFromInt(600)) && req.Method == domain.MethodOther
		})).Return(&domain.Payment{}, nil).Once()
		mockUpstream.On("UpdatePaymentStatus", mock.Anything, domain.ID("7"), mock.Anything).Return(nil).Once()
		mockUpstream.On("LoadAll", mock.Anything).Return(seedReadings(), nil).Once()

		rec := doRequest(router, http.MethodPut, "/api/v1/readings/7/status", `{"status": "paid"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockUpstream.AssertExpectations(t)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("Upstream failure is 502", func(t *testing.T) {
		router, mockUpstream := setupTest(t, nil)
		mockUpstream.On("LoadAll", mock.Anything).Return(nil, errors.New("connection refused"))

		rec := doRequest(router, http.MethodPost, "/api/v1/refresh", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("Success reports snapshot size", func(t *testing.T) {
		router, mockUpstream := setupTest(t, nil)
		mockUpstream.On("LoadAll", mock.Anything).Return(seedReadings(), nil)

		rec := doRequest(router, http.MethodPost, "/api/v1/refresh", "")

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		data := envelope.Data.(map[string]interface{})
		assert.EqualValues(t, 1, data["total_readings"])
	})
}
