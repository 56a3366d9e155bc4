package deletion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	id "alumport/pkg/domain"
	"alumport/pkg/platform/sentinel"
)

// PostgresStore implements Store on the account_deletion_requests table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed deletion request store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, user_id, reason, status, decided_by, decided_at, created_at`

func (s *PostgresStore) Create(ctx context.Context, req Request) error {
	if req.Status == "" {
		req.Status = StatusPending
	}

	query := `
		INSERT INTO account_deletion_requests (id, user_id, reason, status)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(req.ID),
		uuid.UUID(req.UserID),
		req.Reason,
		string(req.Status),
	)
	if err != nil {
		return fmt.Errorf("insert deletion request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reqID id.DeletionRequestID) (Request, error) {
	query := `SELECT ` + requestColumns + ` FROM account_deletion_requests WHERE id = $1`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, uuid.UUID(reqID)))
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, sentinel.ErrNotFound
	}
	return req, err
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM account_deletion_requests`

	var (
		conds []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, uuid.UUID(*filter.UserID))
		conds = append(conds, "user_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deletion requests: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deletion requests: %w", err)
	}
	return requests, nil
}

func (s *PostgresStore) SetDecision(ctx context.Context, reqID id.DeletionRequestID, status RequestStatus, decidedBy *id.UserID, decidedAt *time.Time) error {
	var by *uuid.UUID
	if decidedBy != nil {
		u := uuid.UUID(*decidedBy)
		by = &u
	}

	query := `
		UPDATE account_deletion_requests
		SET status = $2, decided_by = $3, decided_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(reqID), string(status), by, decidedAt)
	if err != nil {
		return fmt.Errorf("update deletion request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update deletion request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var (
		req    Request
		rawID  uuid.UUID
		userID uuid.UUID
		status string
		by     *uuid.UUID
	)

	err := row.Scan(&rawID, &userID, &req.Reason, &status, &by, &req.DecidedAt, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, err
		}
		return Request{}, fmt.Errorf("scan deletion request: %w", err)
	}

	req.ID = id.DeletionRequestID(rawID)
	req.UserID = id.UserID(userID)
	req.Status = RequestStatus(status)
	if by != nil {
		decider := id.UserID(*by)
		req.DecidedBy = &decider
	}
	return req, nil
}
