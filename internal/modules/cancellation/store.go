// README: Cancellation store backed by PostgreSQL; booking_id is unique.
package cancellation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideassist/internal/classifier"
	"rideassist/internal/types"
)

type Store interface {
	// Append fails with ErrDuplicate when the booking already has a record.
	Append(ctx context.Context, r *Record) error
	Remove(ctx context.Context, id types.ID) error
	Get(ctx context.Context, id types.ID) (*Record, error)
	GetByBooking(ctx context.Context, bookingID types.ID) (*Record, error)
	ListByRider(ctx context.Context, riderID types.ID) ([]Record, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]Record, error)
	UpdateDecision(ctx context.Context, id types.ID, d types.Decision) (*Record, error)
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectRecord = `
	SELECT id, booking_id, rider_id, driver_id, cancelled_by, arrived,
	       distance_from_pin, wait_time, rider_rating, rider_cancellation_rate,
	       cancellation_time, decision, rule, model, created_at
	FROM cancellations`

func (s *PostgresStore) Append(ctx context.Context, r *Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO cancellations (
			id, booking_id, rider_id, driver_id, cancelled_by, arrived,
			distance_from_pin, wait_time, rider_rating, rider_cancellation_rate,
			cancellation_time, decision, rule, model, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		string(r.ID), string(r.BookingID), string(r.RiderID), string(r.DriverID),
		string(r.CancelledBy), r.Arrived,
		r.DistanceFromPin, r.WaitTime, r.RiderRating, r.RiderCancellationRate,
		r.CancellationTime, string(r.Decision), nullable(r.Rule), nullable(string(r.Model)),
		r.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) Remove(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cancellations WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Record, error) {
	return s.one(ctx, selectRecord+` WHERE id = $1`, string(id))
}

func (s *PostgresStore) GetByBooking(ctx context.Context, bookingID types.ID) (*Record, error) {
	return s.one(ctx, selectRecord+` WHERE booking_id = $1`, string(bookingID))
}

func (s *PostgresStore) ListByRider(ctx context.Context, riderID types.ID) ([]Record, error) {
	return s.many(ctx, selectRecord+` WHERE rider_id = $1 ORDER BY created_at, id`, string(riderID))
}

func (s *PostgresStore) ListByDriver(ctx context.Context, driverID types.ID) ([]Record, error) {
	return s.many(ctx, selectRecord+` WHERE driver_id = $1 ORDER BY created_at, id`, string(driverID))
}

func (s *PostgresStore) UpdateDecision(ctx context.Context, id types.ID, d types.Decision) (*Record, error) {
	tag, err := s.db.Exec(ctx, `UPDATE cancellations SET decision = $1 WHERE id = $2`, string(d), string(id))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *PostgresStore) one(ctx context.Context, query string, args ...any) (*Record, error) {
	r, err := scanRecord(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) many(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var rule, model *string
	err := row.Scan(
		&r.ID, &r.BookingID, &r.RiderID, &r.DriverID, &r.CancelledBy, &r.Arrived,
		&r.DistanceFromPin, &r.WaitTime, &r.RiderRating, &r.RiderCancellationRate,
		&r.CancellationTime, &r.Decision, &rule, &model, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		r.Rule = *rule
	}
	if model != nil {
		r.Model = classifier.ModelID(*model)
	}
	return &r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
