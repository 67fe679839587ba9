package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nyumba/waterboard/internal/domain"
)

type MockUpstreamClient struct {
	mock.Mock
}

func (m *MockUpstreamClient) LoadAll(ctx context.Context) ([]domain.MeterReading, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MeterReading), args.Error(1)
}

func (m *MockUpstreamClient) CreateReading(ctx context.Context, req *domain.SaveReadingRequest) (*domain.MeterReading, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeterReading), args.Error(1)
}

func (m *MockUpstreamClient) UpdateReading(ctx context.Context, id domain.ID, req *domain.SaveReadingRequest) (*domain.MeterReading, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeterReading), args.Error(1)
}

func (m *MockUpstreamClient) DeleteReading(ctx context.Context, id domain.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUpstreamClient) CreatePayment(ctx context.Context, req *domain.CreatePaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockUpstreamClient) UpdatePaymentStatus(ctx context.Context, id domain.ID, req *domain.UpdatePaymentStatusRequest) error {
	args := m.Called(ctx, id, req)
	return args.Error(0)
}

func (m *MockUpstreamClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
