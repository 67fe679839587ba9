package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyumba/waterboard/internal/config"
	"github.com/nyumba/waterboard/internal/domain"
)

func newTestClient(baseURL string) Client {
	return NewHTTPClient(&config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:     baseURL,
			Timeout:     "5s",
			FanOutLimit: 4,
		},
	})
}

func TestLoadAll(t *testing.T) {
	t.Run("Success - payments fanned out, reading order preserved", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/readings":
				io.WriteString(w, `[
					{"id": 1, "unit_number": "A1", "total_amount": "100", "paid_amount": "0", "payment_status": "unpaid", "reading_date": "2024-01-15"},
					{"id": 2, "unit_number": "A2", "total_amount": "200", "paid_amount": "200", "payment_status": "paid", "reading_date": "2024-01-20"}
				]`)
			case "/api/payments/1":
				io.WriteString(w, `null`)
			case "/api/payments/2":
				io.WriteString(w, `[{"id": 9, "meter_reading_id": 2, "amount": "200", "payment_date": "2024-01-21", "payment_method": "mpesa"}]`)
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		readings, err := newTestClient(srv.URL).LoadAll(context.Background())

		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, domain.ID("1"), readings[0].ID)
		assert.Equal(t, domain.ID("2"), readings[1].ID)
		assert.NotNil(t, readings[0].Payments)
		assert.Empty(t, readings[0].Payments)
		require.Len(t, readings[1].Payments, 1)
		assert.Equal(t, "mpesa", readings[1].Payments[0].Method)
		assert.True(t, readings[1].Payments[0].Amount.Equal(decimal.NewFromInt(200)))
	})

	t.Run("Non-array payload degrades to empty collection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"error": "no rows"}`)
		}))
		defer srv.Close()

		readings, err := newTestClient(srv.URL).LoadAll(context.Background())

		require.NoError(t, err)
		assert.Empty(t, readings)
	})

	t.Run("Malformed payload is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `[{"id": 1,`)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).LoadAll(context.Background())
		assert.Error(t, err)
	})

	t.Run("Payment fetch failure aborts the whole load", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/readings" {
				io.WriteString(w, `[{"id": 1, "unit_number": "A1", "reading_date": "2024-01-15"}]`)
				return
			}
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		readings, err := newTestClient(srv.URL).LoadAll(context.Background())
		require.Error(t, err)
		assert.Nil(t, readings)
	})

	t.Run("Non-2xx list response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).LoadAll(context.Background())
		assert.Error(t, err)
	})
}

func TestCreatePaymentBodyShape(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/payments", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		io.WriteString(w, `{"id": 11, "meter_reading_id": 7, "amount": "600"}`)
	}))
	defer srv.Close()

	payment, err := newTestClient(srv.URL).CreatePayment(context.Background(), &domain.CreatePaymentRequest{
		MeterReadingID: domain.ID("7"),
		Amount:         decimal.NewFromInt(600),
		PaymentDate:    domain.NewDate(2024, 6, 15),
		Method:         domain.MethodOther,
		Notes:          "Status updated to paid by landlord",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ID("11"), payment.ID)

	// The create body is camelCase, unlike the stored entity
	assert.Contains(t, captured, "meterReadingId")
	assert.Contains(t, captured, "paymentDate")
	assert.Equal(t, "2024-06-15", captured["paymentDate"])
	assert.Equal(t, "other", captured["method"])
	assert.EqualValues(t, 7, captured["meterReadingId"])
}

func TestUpdatePaymentStatusBodyShape(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/readings/7/payment-status", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UpdatePaymentStatus(context.Background(), domain.ID("7"), &domain.UpdatePaymentStatusRequest{
		PaidAmount:    decimal.NewFromInt(1000),
		PaymentStatus: domain.StatusPaid,
	})

	require.NoError(t, err)
	assert.Contains(t, captured, "paid_amount")
	assert.Equal(t, "paid", captured["payment_status"])
}

func TestDeleteReading(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).DeleteReading(context.Background(), domain.ID("42"))

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/readings/42", gotPath)
}
