// README: Profile service handles registration, login and ride counters.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"rideassist/internal/types"
)

var (
	ErrNotFound           = errors.New("profile not found")
	ErrAlreadyExists      = errors.New("profile already exists")
	ErrBadRequest         = errors.New("bad request")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

type RegisterRiderCommand struct {
	ID                 types.ID
	Password           string
	Rating             *float64
	TotalRidesBooked   int
	PriorCancellations int
}

type RegisterDriverCommand struct {
	ID                 types.ID
	Rating             *float64
	TotalRidesAccepted int
	PriorCancellations int
}

func (s *Service) RegisterRider(ctx context.Context, cmd RegisterRiderCommand) (*Rider, error) {
	id, err := validateID(cmd.ID)
	if err != nil {
		return nil, err
	}
	if len(cmd.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrBadRequest, MinPasswordLength)
	}
	rating, err := validateRating(cmd.Rating)
	if err != nil {
		return nil, err
	}
	if cmd.TotalRidesBooked < 0 || cmd.PriorCancellations < 0 {
		return nil, fmt.Errorf("%w: ride counts must be non-negative", ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	r := &Rider{
		ID:                 id,
		PasswordHash:       string(hash),
		Rating:             rating,
		TotalRidesBooked:   cmd.TotalRidesBooked,
		PriorCancellations: cmd.PriorCancellations,
		CreatedAt:          s.now(),
	}
	r.recomputeRate()
	if err := s.store.CreateRider(ctx, r); err != nil {
		return nil, err
	}
	slog.Info("rider registered", "rider_id", r.ID)
	return r, nil
}

func (s *Service) RegisterDriver(ctx context.Context, cmd RegisterDriverCommand) (*Driver, error) {
	id, err := validateID(cmd.ID)
	if err != nil {
		return nil, err
	}
	rating, err := validateRating(cmd.Rating)
	if err != nil {
		return nil, err
	}
	if cmd.TotalRidesAccepted < 0 || cmd.PriorCancellations < 0 {
		return nil, fmt.Errorf("%w: ride counts must be non-negative", ErrBadRequest)
	}

	d := &Driver{
		ID:                 id,
		Rating:             rating,
		TotalRidesAccepted: cmd.TotalRidesAccepted,
		PriorCancellations: cmd.PriorCancellations,
		CreatedAt:          s.now(),
	}
	d.recomputeRate()
	if err := s.store.CreateDriver(ctx, d); err != nil {
		return nil, err
	}
	slog.Info("driver registered", "driver_id", d.ID)
	return d, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown id as well as a
// wrong password.
func (s *Service) Authenticate(ctx context.Context, id types.ID, password string) (*Rider, error) {
	r, err := s.store.GetRider(ctx, types.ID(strings.TrimSpace(string(id))))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return r, nil
}

func (s *Service) Rider(ctx context.Context, id types.ID) (*Rider, error) {
	return s.store.GetRider(ctx, id)
}

func (s *Service) Driver(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.GetDriver(ctx, id)
}

func (s *Service) Drivers(ctx context.Context) ([]Driver, error) {
	return s.store.ListDrivers(ctx)
}

func (s *Service) RecordBooking(ctx context.Context, riderID, driverID types.ID) error {
	return s.store.RecordBooking(ctx, riderID, driverID)
}

func (s *Service) RecordRiderCancellation(ctx context.Context, id types.ID) error {
	return s.store.IncrementRiderCancellations(ctx, id)
}

func (s *Service) RecordDriverCancellation(ctx context.Context, id types.ID) error {
	return s.store.IncrementDriverCancellations(ctx, id)
}

// validateID accepts the same alphabet the HTTP layer accepts in paths, so a
// registered id can always be looked up again.
func validateID(id types.ID) (types.ID, error) {
	v := strings.TrimSpace(string(id))
	if v == "" {
		return "", fmt.Errorf("%w: id is required", ErrBadRequest)
	}
	if utf8.RuneCountInString(v) > MaxIDLength {
		return "", fmt.Errorf("%w: id must be at most %d characters", ErrBadRequest, MaxIDLength)
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '-' {
			continue
		}
		return "", fmt.Errorf("%w: id may only contain letters, digits, '_' and '-'", ErrBadRequest)
	}
	return types.ID(v), nil
}

func validateRating(r *float64) (float64, error) {
	if r == nil {
		return DefaultRating, nil
	}
	if *r < 0 || *r > MaxRating {
		return 0, fmt.Errorf("%w: rating must be between 0 and %.0f", ErrBadRequest, MaxRating)
	}
	return *r, nil
}
