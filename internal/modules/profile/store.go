// README: Profile store backed by PostgreSQL.
package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideassist/internal/types"
)

// Store is the profile persistence boundary. Counter updates recompute the
// stored cancellation rate in the same write.
type Store interface {
	CreateRider(ctx context.Context, r *Rider) error
	CreateDriver(ctx context.Context, d *Driver) error
	GetRider(ctx context.Context, id types.ID) (*Rider, error)
	GetDriver(ctx context.Context, id types.ID) (*Driver, error)
	ListDrivers(ctx context.Context) ([]Driver, error)
	RecordBooking(ctx context.Context, riderID, driverID types.ID) error
	IncrementRiderCancellations(ctx context.Context, id types.ID) error
	IncrementDriverCancellations(ctx context.Context, id types.ID) error
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateRider(ctx context.Context, r *Rider) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO riders (
			id, password_hash, rating, total_rides_booked,
			prior_cancellations, cancellation_rate, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(r.ID), r.PasswordHash, r.Rating, r.TotalRidesBooked,
		r.PriorCancellations, r.CancellationRate, r.CreatedAt,
	)
	return mapInsertErr(err)
}

func (s *PostgresStore) CreateDriver(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (
			id, rating, total_rides_accepted,
			prior_cancellations, cancellation_rate, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(d.ID), d.Rating, d.TotalRidesAccepted,
		d.PriorCancellations, d.CancellationRate, d.CreatedAt,
	)
	return mapInsertErr(err)
}

func (s *PostgresStore) GetRider(ctx context.Context, id types.ID) (*Rider, error) {
	var r Rider
	err := s.db.QueryRow(ctx, `
		SELECT id, password_hash, rating, total_rides_booked,
		       prior_cancellations, cancellation_rate, created_at
		FROM riders
		WHERE id = $1`, string(id),
	).Scan(&r.ID, &r.PasswordHash, &r.Rating, &r.TotalRidesBooked,
		&r.PriorCancellations, &r.CancellationRate, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	var d Driver
	err := s.db.QueryRow(ctx, `
		SELECT id, rating, total_rides_accepted,
		       prior_cancellations, cancellation_rate, created_at
		FROM drivers
		WHERE id = $1`, string(id),
	).Scan(&d.ID, &d.Rating, &d.TotalRidesAccepted,
		&d.PriorCancellations, &d.CancellationRate, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) ListDrivers(ctx context.Context) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, rating, total_rides_accepted,
		       prior_cancellations, cancellation_rate, created_at
		FROM drivers
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Rating, &d.TotalRidesAccepted,
			&d.PriorCancellations, &d.CancellationRate, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordBooking bumps both ride counters in one transaction.
func (s *PostgresStore) RecordBooking(ctx context.Context, riderID, driverID types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE riders
		SET total_rides_booked = total_rides_booked + 1,
		    cancellation_rate = LEAST(100, prior_cancellations * 100.0 / (total_rides_booked + 1))
		WHERE id = $1`, string(riderID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	tag, err = tx.Exec(ctx, `
		UPDATE drivers
		SET total_rides_accepted = total_rides_accepted + 1,
		    cancellation_rate = LEAST(100, prior_cancellations * 100.0 / (total_rides_accepted + 1))
		WHERE id = $1`, string(driverID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) IncrementRiderCancellations(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE riders
		SET prior_cancellations = prior_cancellations + 1,
		    cancellation_rate = CASE WHEN total_rides_booked > 0
		        THEN LEAST(100, (prior_cancellations + 1) * 100.0 / total_rides_booked)
		        ELSE 0 END
		WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IncrementDriverCancellations(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET prior_cancellations = prior_cancellations + 1,
		    cancellation_rate = CASE WHEN total_rides_accepted > 0
		        THEN LEAST(100, (prior_cancellations + 1) * 100.0 / total_rides_accepted)
		        ELSE 0 END
		WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}
