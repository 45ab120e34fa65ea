package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"playpark-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.SessionRepository
	repository.GameRepository
	repository.BranchRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                db,
		SessionRepository: NewSessionRepository(db),
		GameRepository:    NewGameRepository(db),
		BranchRepository:  NewBranchRepository(db),
	}
}
