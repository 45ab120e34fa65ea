package repository

import (
	"context"

	"playpark-backend/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.RentalSession) error
	GetByID(ctx context.Context, id string) (*domain.RentalSession, error)
	Update(ctx context.Context, session *domain.RentalSession) error
	// ListActive returns every ACTIVE session; used at startup to
	// rebuild the expiration scheduler.
	ListActive(ctx context.Context) ([]domain.RentalSession, error)
	ListByBranch(ctx context.Context, branchID, status string, page, pageSize int32) ([]domain.RentalSession, int32, error)
}

type GameRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Game, error)
	ListByBranch(ctx context.Context, branchID string) ([]domain.Game, error)
}

type BranchRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Branch, error)
	List(ctx context.Context) ([]domain.Branch, error)
}
