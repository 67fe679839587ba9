package upstream

import (
	"context"

	"github.com/nyumba/waterboard/internal/domain"
)

// Client defines the operations the dashboard performs against the remote
// meter-reading API. The upstream server is the sole source of truth: derived
// amounts come back server-computed and every mutation is followed by a full
// reload through LoadAll.
type Client interface {
	// LoadAll fetches every reading with its payments populated
	LoadAll(ctx context.Context) ([]domain.MeterReading, error)

	// CreateReading creates a new meter reading
	CreateReading(ctx context.Context, req *domain.SaveReadingRequest) (*domain.MeterReading, error)

	// UpdateReading updates an existing reading
	UpdateReading(ctx context.Context, id domain.ID, req *domain.SaveReadingRequest) (*domain.MeterReading, error)

	// DeleteReading deletes a reading
	DeleteReading(ctx context.Context, id domain.ID) error

	// CreatePayment records a payment against a reading
	CreatePayment(ctx context.Context, req *domain.CreatePaymentRequest) (*domain.Payment, error)

	// UpdatePaymentStatus sets a reading's paid_amount and payment_status
	UpdatePaymentStatus(ctx context.Context, id domain.ID, req *domain.UpdatePaymentStatusRequest) error

	// Ping checks upstream reachability
	Ping(ctx context.Context) error
}
