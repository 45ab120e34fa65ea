package http

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"playpark-backend/internal/domain"
)

type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) Create(ctx context.Context, branchID, gameID string, durationMinutes int32, depositCents int64) (*domain.RentalSession, error) {
	args := m.Called(ctx, branchID, gameID, durationMinutes, depositCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSession), args.Error(1)
}

func (m *MockRentalService) Extend(ctx context.Context, sessionID string, extraMinutes int32) (*domain.RentalSession, error) {
	args := m.Called(ctx, sessionID, extraMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSession), args.Error(1)
}

func (m *MockRentalService) Cancel(ctx context.Context, sessionID string, now time.Time) (*domain.RentalSession, error) {
	args := m.Called(ctx, sessionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSession), args.Error(1)
}

func (m *MockRentalService) Complete(ctx context.Context, sessionID string, now time.Time, finalAmountOverride *int64) (*domain.RentalSession, error) {
	args := m.Called(ctx, sessionID, now, finalAmountOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSession), args.Error(1)
}

func (m *MockRentalService) Get(ctx context.Context, sessionID string) (*domain.RentalSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSession), args.Error(1)
}

func (m *MockRentalService) ListByBranch(ctx context.Context, branchID, status string, page, pageSize int32) ([]domain.RentalSession, int32, error) {
	args := m.Called(ctx, branchID, status, page, pageSize)
	var sessions []domain.RentalSession
	if args.Get(0) != nil {
		sessions = args.Get(0).([]domain.RentalSession)
	}
	return sessions, args.Get(1).(int32), args.Error(2)
}

func (m *MockRentalService) HandleExpiry(sessionID string) {
	m.Called(sessionID)
}

func (m *MockRentalService) Restore(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
