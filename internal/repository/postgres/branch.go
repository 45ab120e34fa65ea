package postgres

import (
	"context"
	"database/sql"
	"errors"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/repository"
)

type branchRepository struct {
	db *sql.DB
}

func NewBranchRepository(db *sql.DB) repository.BranchRepository {
	return &branchRepository{db: db}
}

const branchColumns = `id, name, city, address, ops_email, created_on, updated_on`

func (r *branchRepository) GetByID(ctx context.Context, id string) (*domain.Branch, error) {
	b := &domain.Branch{}
	query := `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.City, &b.Address, &b.OpsEmail, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBranchNotFound
		}
		return nil, storeErr(err)
	}
	return b, nil
}

func (r *branchRepository) List(ctx context.Context) ([]domain.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.City, &b.Address, &b.OpsEmail, &b.CreatedOn, &b.UpdatedOn); err != nil {
			return nil, storeErr(err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return branches, nil
}
