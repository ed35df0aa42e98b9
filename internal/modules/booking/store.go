// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideassist/internal/types"
)

type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	ListByRider(ctx context.Context, riderID types.ID, status Status) ([]Booking, error)
	// UpdateStatus moves id from -> to only if it is still in from; false means another writer won.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, at time.Time) (bool, error)
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, rider_id, driver_id, pickup, drop_off, status, created_at, schedule_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(b.ID), string(b.RiderID), string(b.DriverID),
		b.Pickup, b.Drop, string(b.Status), b.CreatedAt, b.ScheduleTime,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, rider_id, driver_id, pickup, drop_off, status, created_at, closed_at, schedule_time
		FROM bookings
		WHERE id = $1`, string(id),
	)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PostgresStore) ListByRider(ctx context.Context, riderID types.ID, status Status) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, rider_id, driver_id, pickup, drop_off, status, created_at, closed_at, schedule_time
		FROM bookings
		WHERE rider_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at, id`, string(riderID), string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1, closed_at = $2
		WHERE id = $3 AND status = $4`,
		string(to), at, string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var closedAt, scheduleTime *time.Time
	if err := row.Scan(&b.ID, &b.RiderID, &b.DriverID, &b.Pickup, &b.Drop, &b.Status, &b.CreatedAt, &closedAt, &scheduleTime); err != nil {
		return nil, err
	}
	b.ClosedAt = closedAt
	b.ScheduleTime = scheduleTime
	return &b, nil
}
