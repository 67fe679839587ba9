package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/nyumba/waterboard/internal/config"
	"github.com/nyumba/waterboard/internal/domain"
	"github.com/nyumba/waterboard/internal/upstream"
	customError "github.com/nyumba/waterboard/pkg/errors"
	"github.com/nyumba/waterboard/pkg/utils"
)

const snapshotCacheKey = "waterboard:snapshot"

// DashboardService owns the in-memory reading snapshot and everything derived
// from it. The snapshot only ever changes by wholesale replacement after a
// successful upstream load; mutations never touch it directly.
type DashboardService struct {
	Upstream upstream.Client
	redis    *redis.Client
	config   *config.Config

	group   singleflight.Group
	loading atomic.Bool

	mu       sync.RWMutex
	readings []domain.MeterReading
	loadedAt time.Time
}

func NewDashboardService(
	upstreamClient upstream.Client,
	redisClient *redis.Client,
	cfg *config.Config,
) *DashboardService {
	return &DashboardService{
		Upstream: upstreamClient,
		redis:    redisClient,
		config:   cfg,
	}
}

// Refresh reloads the full snapshot from the upstream API. Concurrent calls
// collapse into a single upstream fan-out and share its outcome. On failure
// the previous snapshot stays in place.
func (s *DashboardService) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		s.loading.Store(true)
		defer s.loading.Store(false)

		readings, err := s.Upstream.LoadAll(ctx)
		if err != nil {
			return nil, customError.WrapUpstreamError(err)
		}

		s.install(readings, time.Now())
		s.mirrorSnapshot(ctx, readings)
		return nil, nil
	})
	return err
}

// Loading reports whether a refresh is in flight.
func (s *DashboardService) Loading() bool {
	return s.loading.Load()
}

// LoadedAt returns when the current snapshot was installed.
func (s *DashboardService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *DashboardService) install(readings []domain.MeterReading, at time.Time) {
	s.mu.Lock()
	s.readings = readings
	s.loadedAt = at
	s.mu.Unlock()
}

// snapshot returns a copy of the current readings so derivations and sorts
// never touch the stored slice.
func (s *DashboardService) snapshot() []domain.MeterReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]domain.MeterReading, len(s.readings))
	copy(cp, s.readings)
	return cp
}

// Readings returns the snapshot filtered by payment status and sorted most
// recent first.
func (s *DashboardService) Readings(status string) []domain.MeterReading {
	readings := FilterByStatus(s.snapshot(), status)
	SortByReadingDate(readings)
	return readings
}

// Stats derives the global dashboard totals from the current snapshot.
func (s *DashboardService) Stats() domain.DashboardStats {
	return ComputeStats(s.snapshot())
}

// Monthly derives the month partitions from the current snapshot.
func (s *DashboardService) Monthly() []domain.MonthlySummary {
	return GroupByMonth(s.snapshot())
}

func (s *DashboardService) readingByID(id domain.ID) (*domain.MeterReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.readings {
		if s.readings[i].ID == id {
			r := s.readings[i]
			return &r, nil
		}
	}
	return nil, customError.WrapReadingNotFound(id.String())
}

// CreateReading forwards a new reading upstream, then reloads.
func (s *DashboardService) CreateReading(ctx context.Context, req *domain.SaveReadingRequest) (*domain.MeterReading, error) {
	created, err := s.Upstream.CreateReading(ctx, req)
	if err != nil {
		return nil, customError.WrapUpstreamError(err)
	}
	return created, s.Refresh(ctx)
}

// UpdateReading forwards an edited reading upstream, then reloads.
func (s *DashboardService) UpdateReading(ctx context.Context, id domain.ID, req *domain.SaveReadingRequest) (*domain.MeterReading, error) {
	updated, err := s.Upstream.UpdateReading(ctx, id, req)
	if err != nil {
		return nil, customError.WrapUpstreamError(err)
	}
	return updated, s.Refresh(ctx)
}

// DeleteReading deletes a reading upstream, then reloads. Deletion is
// immediate and irreversible; there is no undo.
func (s *DashboardService) DeleteReading(ctx context.Context, id domain.ID) error {
	if err := s.Upstream.DeleteReading(ctx, id); err != nil {
		return customError.WrapUpstreamError(err)
	}
	return s.Refresh(ctx)
}

// SuggestedPaymentAmount returns the prefill for the record-payment form: the
// reading's remaining balance.
func (s *DashboardService) SuggestedPaymentAmount(id domain.ID) (decimal.Decimal, error) {
	reading, err := s.readingByID(id)
	if err != nil {
		return decimal.Zero, err
	}
	return reading.Outstanding(), nil
}

// RecordPayment records an operator-entered payment against a reading. The
// amount must be positive and must not exceed the outstanding balance. The
// resulting paid_amount and status are never computed here; the reload after
// the upstream call is what surfaces them.
func (s *DashboardService) RecordPayment(ctx context.Context, id domain.ID, req *domain.RecordPaymentRequest) (*domain.Payment, error) {
	reading, err := s.readingByID(id)
	if err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(utils.FormatAmount(req.Amount))
	}
	if req.Amount.GreaterThan(reading.Outstanding()) {
		return nil, customError.WrapPaymentExceedsOutstanding(
			utils.FormatAmount(req.Amount),
			utils.FormatAmount(reading.Outstanding()),
		)
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = domain.Today()
	}

	payment, err := s.Upstream.CreatePayment(ctx, &domain.CreatePaymentRequest{
		MeterReadingID: reading.ID,
		Amount:         req.Amount,
		PaymentDate:    paymentDate,
		Method:         req.Method,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, customError.WrapUpstreamError(err)
	}

	return payment, s.Refresh(ctx)
}

// UpdatePaymentStatus performs the quick status change. For "paid" the delta
// is the remaining balance; for "partial" the delta is the entered amount
// minus what is already paid; "unpaid" forces paid_amount to zero with no
// payment record. A positive delta inserts the synthetic payment before the
// status call so a partial audit trail never shows a status change without
// its justifying payment.
func (s *DashboardService) UpdatePaymentStatus(ctx context.Context, id domain.ID, req *domain.QuickStatusUpdateRequest) error {
	reading, err := s.readingByID(id)
	if err != nil {
		return err
	}

	newPaid := reading.PaidAmount
	delta := decimal.Zero

	switch req.Status {
	case domain.StatusPaid:
		delta = reading.TotalAmount.Sub(reading.PaidAmount)
		newPaid = reading.TotalAmount
	case domain.StatusPartial:
		if !req.PartialAmount.IsPositive() {
			return customError.WrapInvalidPaymentAmount(utils.FormatAmount(req.PartialAmount))
		}
		delta = req.PartialAmount.Sub(reading.PaidAmount)
		newPaid = req.PartialAmount
	case domain.StatusUnpaid:
		newPaid = decimal.Zero
	default:
		return customError.WrapInvalidPaymentStatus(req.Status)
	}

	if delta.IsPositive() {
		notes := req.Notes
		if notes == "" {
			notes = fmt.Sprintf("Status updated to %s by landlord", req.Status)
		}
		paymentDate := req.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = domain.Today()
		}

		_, err := s.Upstream.CreatePayment(ctx, &domain.CreatePaymentRequest{
			MeterReadingID: reading.ID,
			Amount:         delta,
			PaymentDate:    paymentDate,
			Method:         domain.MethodOther,
			Notes:          notes,
		})
		if err != nil {
			return customError.WrapUpstreamError(err)
		}
	}

	err = s.Upstream.UpdatePaymentStatus(ctx, reading.ID, &domain.UpdatePaymentStatusRequest{
		PaidAmount:    newPaid,
		PaymentStatus: req.Status,
	})
	if err != nil {
		return customError.WrapUpstreamError(err)
	}

	return s.Refresh(ctx)
}

// WarmStart tries to seed the snapshot from the redis mirror so a restarted
// instance serves data before its first upstream load. Returns whether a
// snapshot was installed. Never authoritative: the caller still refreshes.
func (s *DashboardService) WarmStart(ctx context.Context) bool {
	if s.redis == nil {
		return false
	}

	raw, err := s.redis.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("snapshot warm start failed", "error", customError.WrapCacheError(err))
		}
		return false
	}

	var readings []domain.MeterReading
	if err := json.Unmarshal(raw, &readings); err != nil {
		slog.Warn("discarding undecodable cached snapshot", "error", err)
		return false
	}

	s.install(readings, time.Now())
	return true
}

// mirrorSnapshot writes the freshly loaded snapshot to redis, best effort.
func (s *DashboardService) mirrorSnapshot(ctx context.Context, readings []domain.MeterReading) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(readings)
	if err != nil {
		slog.Warn("snapshot mirror encode failed", "error", err)
		return
	}

	if err := s.redis.Set(ctx, snapshotCacheKey, raw, s.config.GetSnapshotTTL()).Err(); err != nil {
		slog.Warn("snapshot mirror write failed", "error", customError.WrapCacheError(err))
	}
}
