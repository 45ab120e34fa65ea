package postgres

import (
	"context"
	"database/sql"
	"errors"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/repository"
)

type gameRepository struct {
	db *sql.DB
}

func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

const gameColumns = `id, branch_id, name, category, status, base_rate_cents, created_on, updated_on`

func (r *gameRepository) GetByID(ctx context.Context, id string) (*domain.Game, error) {
	g := &domain.Game{}
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.BranchID, &g.Name, &g.Category, &g.Status, &g.BaseRateCents, &g.CreatedOn, &g.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGameNotFound
		}
		return nil, storeErr(err)
	}
	return g, nil
}

func (r *gameRepository) ListByBranch(ctx context.Context, branchID string) ([]domain.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE branch_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, branchID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		var g domain.Game
		if err := rows.Scan(&g.ID, &g.BranchID, &g.Name, &g.Category, &g.Status, &g.BaseRateCents, &g.CreatedOn, &g.UpdatedOn); err != nil {
			return nil, storeErr(err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return games, nil
}
