package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nyumba/waterboard/internal/config"
	"github.com/nyumba/waterboard/internal/domain"
)

type httpClient struct {
	baseURL     string
	client      *http.Client
	fanOutLimit int
}

// NewHTTPClient creates a Client talking to the configured upstream API.
func NewHTTPClient(cfg *config.Config) Client {
	return &httpClient{
		baseURL:     strings.TrimRight(cfg.Upstream.BaseURL, "/"),
		client:      &http.Client{Timeout: cfg.GetUpstreamTimeout()},
		fanOutLimit: cfg.Upstream.FanOutLimit,
	}
}

// LoadAll fetches the reading list, then fans out one payment fetch per
// reading. The fetches run concurrently; the merged result preserves the
// upstream reading order, not completion order. Any failure aborts the whole
// load so a partial snapshot is never returned.
func (c *httpClient) LoadAll(ctx context.Context) ([]domain.MeterReading, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/readings", nil)
	if err != nil {
		return nil, err
	}

	readings, err := decodeReadingList(body)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fanOutLimit)

	for i := range readings {
		i := i
		g.Go(func() error {
			payments, err := c.paymentsFor(gctx, readings[i].ID)
			if err != nil {
				return err
			}
			readings[i].Payments = payments
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return readings, nil
}

// decodeReadingList tolerates a well-formed payload that is not an array by
// substituting an empty collection. Malformed JSON is still an error.
func decodeReadingList(body []byte) ([]domain.MeterReading, error) {
	var probe interface{}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decoding readings list: %w", err)
	}
	if _, ok := probe.([]interface{}); !ok {
		return []domain.MeterReading{}, nil
	}

	var readings []domain.MeterReading
	if err := json.Unmarshal(body, &readings); err != nil {
		return nil, fmt.Errorf("decoding readings list: %w", err)
	}
	return readings, nil
}

func (c *httpClient) paymentsFor(ctx context.Context, readingID domain.ID) ([]domain.Payment, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/payments/"+readingID.String(), nil)
	if err != nil {
		return nil, err
	}

	var payments []domain.Payment
	if err := json.Unmarshal(body, &payments); err != nil {
		return nil, fmt.Errorf("decoding payments for reading %s: %w", readingID, err)
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}

func (c *httpClient) CreateReading(ctx context.Context, req *domain.SaveReadingRequest) (*domain.MeterReading, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/readings", req)
	if err != nil {
		return nil, err
	}

	var reading domain.MeterReading
	if err := json.Unmarshal(body, &reading); err != nil {
		return nil, fmt.Errorf("decoding created reading: %w", err)
	}
	return &reading, nil
}

func (c *httpClient) UpdateReading(ctx context.Context, id domain.ID, req *domain.SaveReadingRequest) (*domain.MeterReading, error) {
	body, err := c.do(ctx, http.MethodPut, "/api/readings/"+id.String(), req)
	if err != nil {
		return nil, err
	}

	var reading domain.MeterReading
	if err := json.Unmarshal(body, &reading); err != nil {
		return nil, fmt.Errorf("decoding updated reading: %w", err)
	}
	return &reading, nil
}

func (c *httpClient) DeleteReading(ctx context.Context, id domain.ID) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/readings/"+id.String(), nil)
	return err
}

func (c *httpClient) CreatePayment(ctx context.Context, req *domain.CreatePaymentRequest) (*domain.Payment, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/payments", req)
	if err != nil {
		return nil, err
	}

	var payment domain.Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("decoding created payment: %w", err)
	}
	return &payment, nil
}

func (c *httpClient) UpdatePaymentStatus(ctx context.Context, id domain.ID, req *domain.UpdatePaymentStatusRequest) error {
	_, err := c.do(ctx, http.MethodPut, "/api/readings/"+id.String()+"/payment-status", req)
	return err
}

func (c *httpClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/readings", nil)
	return err
}

// do executes one upstream request. Every non-2xx status collapses into the
// same failure; callers never branch on status codes.
func (c *httpClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}

	return body, nil
}
