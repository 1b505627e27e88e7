package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

// Postgres error codes we translate.
const (
	pgExclusionViolation        = "23P01"
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02"
)

const activityColumns = `id, owner_id, project_id, activity_date, start_minute, end_minute,
		       status, priority, description, observations, results, created_at, updated_at`

// ActivityRepository handles PostgreSQL operations for activities
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Get retrieves an activity by id
func (r *ActivityRepository) Get(ctx context.Context, id string) (*domain.Activity, error) {
	return r.get(ctx, r.db, id)
}

func (r *ActivityRepository) get(ctx context.Context, q querier, id string) (*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	a, err := scanActivity(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows || isMalformedID(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &a, nil
}

// ListByOwnerAndDate returns the owner's activities on one date ordered by start
func (r *ActivityRepository) ListByOwnerAndDate(ctx context.Context, ownerID string, date domain.Date) ([]domain.Activity, error) {
	return r.listByOwnerAndDate(ctx, r.db, ownerID, date, false)
}

func (r *ActivityRepository) listByOwnerAndDate(ctx context.Context, q querier, ownerID string, date domain.Date, lock bool) ([]domain.Activity, error) {
	query := `SELECT ` + activityColumns + `
		FROM activities
		WHERE owner_id = $1 AND activity_date = $2::date
		ORDER BY start_minute, created_at`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, err := q.QueryContext(ctx, query, ownerID, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return collect(rows)
}

// ListByOwners returns activities of any of the owners, optionally bounded by
// an inclusive date range. A nil bound is open.
func (r *ActivityRepository) ListByOwners(ctx context.Context, ownerIDs []string, from, to *domain.Date) ([]domain.Activity, error) {
	if len(ownerIDs) == 0 {
		return []domain.Activity{}, nil
	}

	query := `SELECT ` + activityColumns + `
		FROM activities
		WHERE owner_id = ANY($1)
		  AND ($2::date IS NULL OR activity_date >= $2::date)
		  AND ($3::date IS NULL OR activity_date <= $3::date)
		ORDER BY activity_date, start_minute, created_at`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ownerIDs), nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list activities for owners: %w", err)
	}
	return collect(rows)
}

// ListSubmittedOn returns every submitted activity dated date, across owners
func (r *ActivityRepository) ListSubmittedOn(ctx context.Context, date domain.Date) ([]domain.Activity, error) {
	query := `SELECT ` + activityColumns + `
		FROM activities
		WHERE activity_date = $1::date AND status = $2
		ORDER BY project_id NULLS LAST, owner_id, start_minute`

	rows, err := r.db.QueryContext(ctx, query, date.String(), string(domain.StatusSubmitted))
	if err != nil {
		return nil, fmt.Errorf("failed to list submitted activities: %w", err)
	}
	return collect(rows)
}

// Insert stores a new activity. The same-day snapshot is re-read and checked
// for overlaps under a per owner+date advisory lock, so two concurrent
// creates cannot both pass.
func (r *ActivityRepository) Insert(ctx context.Context, a domain.Activity) error {
	return r.withSlotLock(ctx, a, func(tx *sql.Tx) error {
		query := `
			INSERT INTO activities (
				id, owner_id, project_id, activity_date, start_minute, end_minute,
				status, priority, description, observations, results, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

		_, err := tx.ExecContext(ctx, query,
			a.ID,
			a.OwnerID,
			nullString(a.ProjectID),
			a.Date.String(),
			int(a.Window.Start),
			int(a.Window.End),
			string(a.Status),
			nullString(string(a.Priority)),
			a.Description,
			nullString(a.Observations),
			nullString(a.Results),
			a.CreatedAt,
			a.UpdatedAt,
		)
		if err != nil {
			return translate(err, "failed to insert activity")
		}
		return nil
	})
}

// Update overwrites the editable fields of a, provided the stored status is
// still expected. The overlap check runs under the same lock as Insert.
func (r *ActivityRepository) Update(ctx context.Context, a domain.Activity, expected domain.Status) error {
	return r.withSlotLock(ctx, a, func(tx *sql.Tx) error {
		query := `
			UPDATE activities
			SET project_id = $3, activity_date = $4::date, start_minute = $5, end_minute = $6,
			    status = $7, priority = $8, description = $9, observations = $10, results = $11,
			    updated_at = $12
			WHERE id = $1 AND status = $2`

		res, err := tx.ExecContext(ctx, query,
			a.ID,
			string(expected),
			nullString(a.ProjectID),
			a.Date.String(),
			int(a.Window.Start),
			int(a.Window.End),
			string(a.Status),
			nullString(string(a.Priority)),
			a.Description,
			nullString(a.Observations),
			nullString(a.Results),
			a.UpdatedAt,
		)
		if err != nil {
			return translate(err, "failed to update activity")
		}
		return r.requireAffected(ctx, tx, res, a.ID, a.Status)
	})
}

// UpdateStatus moves id from one status to another, failing if another
// writer got there first.
func (r *ActivityRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error {
	query := `
		UPDATE activities
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`

	res, err := r.db.ExecContext(ctx, query, id, string(from), string(to), at)
	if err != nil {
		return translate(err, "failed to update activity status")
	}
	return r.requireAffected(ctx, r.db, res, id, to)
}

// Delete removes an activity unless it was already submitted
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM activities WHERE id = $1 AND status <> $2`

	res, err := r.db.ExecContext(ctx, query, id, string(domain.StatusSubmitted))
	if err != nil {
		return translate(err, "failed to delete activity")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	current, err := r.get(ctx, r.db, id)
	if err != nil {
		return err
	}
	return domain.CheckDelete(current.Status)
}

func (r *ActivityRepository) withSlotLock(ctx context.Context, a domain.Activity, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, slotKey(a.OwnerID, a.Date)); err != nil {
		return fmt.Errorf("failed to lock activity slot: %w", err)
	}

	existing, err := r.listByOwnerAndDate(ctx, tx, a.OwnerID, a.Date, true)
	if err != nil {
		return err
	}
	if err := domain.CheckOverlap(a, existing); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// requireAffected turns a zero-row conditional update into ErrNotFound or a
// TransitionError describing the state that was actually found.
func (r *ActivityRepository) requireAffected(ctx context.Context, q querier, res sql.Result, id string, to domain.Status) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	current, err := r.get(ctx, q, id)
	if err != nil {
		return err
	}
	return &domain.TransitionError{From: current.Status, To: to}
}

func slotKey(ownerID string, date domain.Date) string {
	return ownerID + ":" + date.String()
}

func translate(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgExclusionViolation:
			return &domain.OverlapError{}
		case pgUniqueViolation:
			return fmt.Errorf("%s: duplicate activity id: %w", msg, err)
		case pgInvalidTextRepresentation:
			return domain.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// isMalformedID reports a uuid cast failure. An id that can never exist is
// simply not found.
func isMalformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgInvalidTextRepresentation
}

func collect(rows *sql.Rows) ([]domain.Activity, error) {
	defer rows.Close()

	out := make([]domain.Activity, 0, 8)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanActivity(s scanner) (domain.Activity, error) {
	var a domain.Activity
	var projectID, priority, observations, results sql.NullString
	var date time.Time
	var start, end int
	var status string

	err := s.Scan(
		&a.ID,
		&a.OwnerID,
		&projectID,
		&date,
		&start,
		&end,
		&status,
		&priority,
		&a.Description,
		&observations,
		&results,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Activity{}, err
	}

	a.ProjectID = projectID.String
	a.Date = domain.DateOf(date)
	a.Window = domain.TimeWindow{Start: domain.LocalTime(start), End: domain.LocalTime(end)}
	a.Status = domain.Status(status)
	a.Priority = domain.Priority(priority.String)
	a.Observations = observations.String
	a.Results = results.String
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableDate(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
