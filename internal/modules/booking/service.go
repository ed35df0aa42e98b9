// README: Booking service assigns a driver and owns the booking lifecycle.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"rideassist/internal/modules/profile"
	"rideassist/internal/types"
)

var (
	ErrNotFound     = errors.New("booking not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("booking state conflict")
	ErrNoDriver     = errors.New("no driver available")
	ErrBadRequest   = errors.New("bad request")
	ErrBadSchedule  = fmt.Errorf("%w: schedule time must be DD/MM/YYYY HH:MM", ErrBadRequest)
)

// IDPrefix marks booking identifiers.
const IDPrefix = "B"

// Profiles is the slice of the profile service bookings need.
type Profiles interface {
	Rider(ctx context.Context, id types.ID) (*profile.Rider, error)
	Drivers(ctx context.Context) ([]profile.Driver, error)
	RecordBooking(ctx context.Context, riderID, driverID types.ID) error
}

// RouteEstimator is satisfied by maps.RouteService.
type RouteEstimator interface {
	GetTravelEstimate(ctx context.Context, origin, destination string) (time.Duration, string, error)
}

type Service struct {
	store    Store
	profiles Profiles
	routes   RouteEstimator
	pick     func(n int) int
	now      func() time.Time
}

// NewService wires a booking service. routes may be nil.
func NewService(store Store, profiles Profiles, routes RouteEstimator) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		routes:   routes,
		pick:     rand.Intn,
		now:      time.Now,
	}
}

type BookCommand struct {
	RiderID types.ID
	Pickup  string
	Drop    string

	// Schedule is an optional pickup time in ScheduleLayout.
	Schedule string
}

type CompleteCommand struct {
	BookingID types.ID
	RiderID   types.ID
}

// Book assigns a uniformly random registered driver.
func (s *Service) Book(ctx context.Context, cmd BookCommand) (*Confirmation, error) {
	pickup := strings.TrimSpace(cmd.Pickup)
	drop := strings.TrimSpace(cmd.Drop)
	if cmd.RiderID == "" || pickup == "" || drop == "" {
		return nil, fmt.Errorf("%w: rider, pickup and drop are required", ErrBadRequest)
	}
	schedule, err := ParseSchedule(cmd.Schedule)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.Rider(ctx, cmd.RiderID); err != nil {
		return nil, err
	}
	drivers, err := s.profiles.Drivers(ctx)
	if err != nil {
		return nil, err
	}
	if len(drivers) == 0 {
		return nil, ErrNoDriver
	}
	driver := drivers[s.pick(len(drivers))]

	now := s.now()
	b := &Booking{
		ID:           types.NewID(IDPrefix, now),
		RiderID:      cmd.RiderID,
		DriverID:     driver.ID,
		Pickup:       pickup,
		Drop:         drop,
		Status:       StatusActive,
		CreatedAt:    now,
		ScheduleTime: schedule,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	if err := s.profiles.RecordBooking(ctx, b.RiderID, b.DriverID); err != nil {
		slog.Warn("booking counters not updated", "booking_id", b.ID, "error", err)
	}
	slog.Info("booking created", "booking_id", b.ID, "rider_id", b.RiderID, "driver_id", b.DriverID)

	conf := &Confirmation{Booking: b}
	if s.routes != nil {
		d, dist, err := s.routes.GetTravelEstimate(ctx, pickup, drop)
		if err != nil {
			slog.Warn("route estimate unavailable", "booking_id", b.ID, "error", err)
		} else {
			conf.RouteDuration = d
			conf.RouteDistance = dist
		}
	}
	return conf, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListActiveByRider(ctx context.Context, riderID types.ID) ([]Booking, error) {
	return s.store.ListByRider(ctx, riderID, StatusActive)
}

func (s *Service) ListByRider(ctx context.Context, riderID types.ID) ([]Booking, error) {
	return s.store.ListByRider(ctx, riderID, "")
}

// Complete closes a ride normally. A non-empty RiderID must own the booking.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if cmd.RiderID != "" && b.RiderID != cmd.RiderID {
		return ErrNotFound
	}
	return s.transition(ctx, b, StatusCompleted)
}

// SetStatus is the cancellation path's entry point into the lifecycle.
func (s *Service) SetStatus(ctx context.Context, id types.ID, to Status) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.transition(ctx, b, to)
}

func (s *Service) transition(ctx context.Context, b *Booking, to Status) error {
	if !CanTransition(b.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, to, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
