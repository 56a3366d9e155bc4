package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	id "alumport/pkg/domain"
	"alumport/pkg/platform/sentinel"
)

// PostgresStore implements Store on the activity_logs table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, actor_id, target_id, action, details, client_context, occurred_at`

func (s *PostgresStore) Append(ctx context.Context, entry Entry) (Entry, error) {
	entry.ID = id.NewEntryID()

	query := `
		INSERT INTO activity_logs (id, actor_id, target_id, action, details, client_context)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING occurred_at
	`
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(entry.ID),
		uuidOrNil(entry.ActorID),
		uuidOrNil(entry.TargetID),
		string(entry.Action),
		entry.Details,
		entry.ClientContext,
	).Scan(&entry.OccurredAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert activity log: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM activity_logs`

	var (
		conds []string
		args  []any
	)
	if filter.ActorID != nil {
		args = append(args, uuid.UUID(*filter.ActorID))
		conds = append(conds, "actor_id = $"+strconv.Itoa(len(args)))
	}
	if filter.TargetID != nil {
		args = append(args, uuid.UUID(*filter.TargetID))
		conds = append(conds, "target_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Action != "" {
		args = append(args, string(filter.Action))
		conds = append(conds, "action = $"+strconv.Itoa(len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conds = append(conds, "occurred_at >= $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY occurred_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity logs: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) LatestByTargetAndAction(ctx context.Context, target id.UserID, action Action) (Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM activity_logs
		WHERE target_id = $1 AND action = $2
		ORDER BY occurred_at DESC
		LIMIT 1
	`
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, uuid.UUID(target), string(action)))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, sentinel.ErrNotFound
	}
	return e, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e      Entry
		rawID  uuid.UUID
		actor  *uuid.UUID
		target *uuid.UUID
		action string
	)

	err := row.Scan(&rawID, &actor, &target, &action, &e.Details, &e.ClientContext, &e.OccurredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan activity log: %w", err)
	}

	e.ID = id.EntryID(rawID)
	e.Action = Action(action)
	if actor != nil {
		a := id.UserID(*actor)
		e.ActorID = &a
	}
	if target != nil {
		t := id.UserID(*target)
		e.TargetID = &t
	}
	return e, nil
}

func uuidOrNil(userID *id.UserID) any {
	if userID == nil {
		return nil
	}
	return uuid.UUID(*userID)
}
