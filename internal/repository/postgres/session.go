package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, branch_id, game_id, status, started_at, planned_duration_minutes, expires_at,
	base_rate_cents, total_amount_cents, deposit_amount_cents, refund_amount_cents,
	terminal_at, terminal_reason, created_on, updated_on`

func (r *sessionRepository) Create(ctx context.Context, s *domain.RentalSession) error {
	query := `INSERT INTO rental_sessions (` + sessionColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	now := time.Now()
	s.CreatedOn = now
	s.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.BranchID, s.GameID, s.Status, s.StartedAt, s.PlannedDurationMinutes, s.ExpiresAt,
		s.BaseRateCents, s.TotalAmountCents, s.DepositAmountCents, s.RefundAmountCents,
		s.TerminalAt, nullString(s.TerminalReason), s.CreatedOn, s.UpdatedOn)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.RentalSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, storeErr(err)
	}
	return s, nil
}

func (r *sessionRepository) Update(ctx context.Context, s *domain.RentalSession) error {
	query := `UPDATE rental_sessions
	          SET status=$1, planned_duration_minutes=$2, expires_at=$3, total_amount_cents=$4,
	              refund_amount_cents=$5, terminal_at=$6, terminal_reason=$7, updated_on=$8
	          WHERE id=$9`
	s.UpdatedOn = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		s.Status, s.PlannedDurationMinutes, s.ExpiresAt, s.TotalAmountCents,
		s.RefundAmountCents, s.TerminalAt, nullString(s.TerminalReason), s.UpdatedOn, s.ID)
	if err != nil {
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) ListActive(ctx context.Context) ([]domain.RentalSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE status = $1 ORDER BY expires_at`
	rows, err := r.db.QueryContext(ctx, query, domain.SessionStatusActive)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var sessions []domain.RentalSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return sessions, nil
}

func (r *sessionRepository) ListByBranch(ctx context.Context, branchID, status string, page, pageSize int32) ([]domain.RentalSession, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE branch_id = $1`

	args := []interface{}{branchID}
	argIdx := 2
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, storeErr(err)
	}

	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer rows.Close()

	var sessions []domain.RentalSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, storeErr(err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr(err)
	}
	return sessions, count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.RentalSession, error) {
	s := &domain.RentalSession{}
	var terminalAt sql.NullTime
	var terminalReason sql.NullString
	err := row.Scan(&s.ID, &s.BranchID, &s.GameID, &s.Status, &s.StartedAt, &s.PlannedDurationMinutes, &s.ExpiresAt,
		&s.BaseRateCents, &s.TotalAmountCents, &s.DepositAmountCents, &s.RefundAmountCents,
		&terminalAt, &terminalReason, &s.CreatedOn, &s.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if terminalAt.Valid {
		t := terminalAt.Time
		s.TerminalAt = &t
	}
	s.TerminalReason = terminalReason.String
	return s, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// storeErr maps driver failures to the store-unavailable taxonomy so
// the engine can treat them as aborted transitions.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
