package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "alumport/pkg/domain"
	"alumport/pkg/platform/sentinel"
)

// PostgresStore implements Store on the profiles table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `
	id, email, full_name, password_hash, role, graduation_year, degree,
	address, latitude, longitude, verification_status, verified_at,
	verified_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p Profile) error {
	if p.Status == "" {
		p.Status = StatusUnverified
	}

	query := `
		INSERT INTO profiles (
			id, email, full_name, password_hash, role, graduation_year,
			degree, address, latitude, longitude, verification_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID),
		p.Email,
		p.FullName,
		p.PasswordHash,
		string(p.Role),
		nullableInt(p.GraduationYear),
		p.Degree,
		p.Location.Address,
		p.Location.Lat,
		p.Location.Lon,
		string(p.Status),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (Profile, error) {
	query := `SELECT` + profileColumns + ` FROM profiles WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (Profile, error) {
	query := `SELECT` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1)`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Profile, error) {
	query := `SELECT` + profileColumns + ` FROM profiles`

	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "verification_status = $"+strconv.Itoa(len(args)))
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conds = append(conds, "role = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func (s *PostgresStore) Update(ctx context.Context, userID id.UserID, update Update, now time.Time) (Profile, error) {
	sets := []string{"updated_at = $1"}
	args := []any{now}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if update.FullName != nil {
		appendSet("full_name", *update.FullName)
	}
	if update.GraduationYear != nil {
		appendSet("graduation_year", *update.GraduationYear)
	}
	if update.Degree != nil {
		appendSet("degree", *update.Degree)
	}
	if update.Address != nil {
		appendSet("address", *update.Address)
	}
	if update.Lat != nil {
		appendSet("latitude", *update.Lat)
	}
	if update.Lon != nil {
		appendSet("longitude", *update.Lon)
	}
	if update.ClearCoords {
		sets = append(sets, "latitude = NULL", "longitude = NULL")
	}

	args = append(args, uuid.UUID(userID))
	query := "UPDATE profiles SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING" + profileColumns

	return s.scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func (s *PostgresStore) SetVerification(ctx context.Context, target id.UserID, status VerificationStatus, verifiedAt *time.Time, verifiedBy *id.UserID) error {
	query := `
		UPDATE profiles
		SET verification_status = $2, verified_at = $3, verified_by = $4, updated_at = now()
		WHERE id = $1
	`
	var by *uuid.UUID
	if verifiedBy != nil {
		u := uuid.UUID(*verifiedBy)
		by = &u
	}

	res, err := s.db.ExecContext(ctx, query, uuid.UUID(target), string(status), verifiedAt, by)
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetVerificationPrivileged(ctx context.Context, target id.UserID, status VerificationStatus, verifiedAt *time.Time, verifiedBy *id.UserID) error {
	var by *uuid.UUID
	if verifiedBy != nil {
		u := uuid.UUID(*verifiedBy)
		by = &u
	}
	at := time.Now()
	if verifiedAt != nil {
		at = *verifiedAt
	}

	_, err := s.db.ExecContext(ctx,
		`SELECT admin_set_verification($1, $2, $3, $4)`,
		uuid.UUID(target), string(status), by, at,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "undefined_function", "insufficient_privilege":
				// Procedure missing or not granted in this deployment;
				// the caller falls back to the direct update.
				return sentinel.ErrUnavailable
			}
		}
		return fmt.Errorf("admin_set_verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[VerificationStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT verification_status, count(*) FROM profiles GROUP BY verification_status`)
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	defer rows.Close()

	counts := make(map[VerificationStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan profile count: %w", err)
		}
		counts[VerificationStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row *sql.Row) (Profile, error) {
	p, err := s.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, sentinel.ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) scanRow(row rowScanner) (Profile, error) {
	var (
		p        Profile
		rawID    uuid.UUID
		role     string
		status   string
		gradYear sql.NullInt64
		by       *uuid.UUID
	)

	err := row.Scan(
		&rawID,
		&p.Email,
		&p.FullName,
		&p.PasswordHash,
		&role,
		&gradYear,
		&p.Degree,
		&p.Location.Address,
		&p.Location.Lat,
		&p.Location.Lon,
		&status,
		&p.VerifiedAt,
		&by,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, err
		}
		return Profile{}, fmt.Errorf("scan profile: %w", err)
	}

	p.ID = id.UserID(rawID)
	p.Role = Role(role)
	p.Status = VerificationStatus(status)
	if gradYear.Valid {
		p.GraduationYear = int(gradYear.Int64)
	}
	if by != nil {
		verifier := id.UserID(*by)
		p.VerifiedBy = &verifier
	}
	return p, nil
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
