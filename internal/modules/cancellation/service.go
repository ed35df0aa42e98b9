// README: Cancellation orchestrator: lookup, elicit, decide, then persist in a safe order.
package cancellation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rideassist/internal/classifier"
	"rideassist/internal/infra"
	"rideassist/internal/modules/adjudication"
	"rideassist/internal/modules/booking"
	"rideassist/internal/modules/profile"
	"rideassist/internal/types"
)

var (
	ErrBookingNotFound = errors.New("invalid or inactive booking")
	ErrPartyNotFound   = errors.New("booking party not found, please contact support")
	ErrBusy            = errors.New("booking is being cancelled by another request")
	ErrDuplicate       = errors.New("booking already has a cancellation record")
	ErrNotFound        = errors.New("cancellation not found")
	ErrInvalidDecision = errors.New("invalid decision label")
)

type Bookings interface {
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	SetStatus(ctx context.Context, id types.ID, to booking.Status) error
}

type Profiles interface {
	Rider(ctx context.Context, id types.ID) (*profile.Rider, error)
	Driver(ctx context.Context, id types.ID) (*profile.Driver, error)
	RecordRiderCancellation(ctx context.Context, id types.ID) error
	RecordDriverCancellation(ctx context.Context, id types.ID) error
}

type Service struct {
	store    Store
	bookings Bookings
	profiles Profiles
	engine   *adjudication.Engine
	locker   infra.Locker
	now      func() time.Time
}

// NewService wires the orchestrator. A nil locker serializes in-process only.
func NewService(store Store, bookings Bookings, profiles Profiles, engine *adjudication.Engine, locker infra.Locker) *Service {
	if locker == nil {
		locker = infra.NewLocalLocker()
	}
	return &Service{
		store:    store,
		bookings: bookings,
		profiles: profiles,
		engine:   engine,
		locker:   locker,
		now:      time.Now,
	}
}

type CancelCommand struct {
	BookingID types.ID
	// RiderID, when set, must own the booking.
	RiderID types.ID
	Source  adjudication.FactSource
}

// Cancel adjudicates and closes an active booking. Nothing is written until a
// decision exists, and a failed booking transition removes the new record.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Record, error) {
	if cmd.Source == nil {
		return nil, fmt.Errorf("%w: no fact source", adjudication.ErrInvalidInput)
	}
	release, err := s.locker.TryLock(ctx, string(cmd.BookingID))
	if errors.Is(err, infra.ErrLocked) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}
	defer release()

	b, err := s.bookings.Get(ctx, cmd.BookingID)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusActive {
		return nil, ErrBookingNotFound
	}
	if cmd.RiderID != "" && b.RiderID != cmd.RiderID {
		return nil, ErrBookingNotFound
	}

	rider, err := s.profiles.Rider(ctx, b.RiderID)
	if err != nil {
		return nil, partyErr("rider", b.RiderID, err)
	}
	if _, err := s.profiles.Driver(ctx, b.DriverID); err != nil {
		return nil, partyErr("driver", b.DriverID, err)
	}

	facts, err := s.engine.Collect(ctx, cmd.Source, adjudication.RiderStanding{
		Rating:           rider.Rating,
		CancellationRate: rider.CancellationRate,
	})
	if err != nil {
		return nil, err
	}
	out, err := s.engine.Decide(facts)
	if err != nil {
		if errors.Is(err, classifier.ErrSchemaMismatch) {
			slog.Error("classifier schema mismatch", "booking_id", b.ID, "error", err)
		}
		return nil, err
	}

	now := s.now()
	rec := &Record{
		ID:                    types.NewID(IDPrefix, now),
		BookingID:             b.ID,
		RiderID:               b.RiderID,
		DriverID:              b.DriverID,
		CancelledBy:           facts.CancelledBy,
		Arrived:               facts.Arrived,
		DistanceFromPin:       facts.DistanceFromPin,
		WaitTime:              facts.WaitTime,
		RiderRating:           facts.RiderRating,
		RiderCancellationRate: facts.RiderCancellationRate,
		CancellationTime:      facts.CancellationTime,
		Decision:              out.Decision,
		Rule:                  out.Rule,
		Model:                 out.Model,
		CreatedAt:             now,
	}
	if err := s.store.Append(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if err := s.bookings.SetStatus(ctx, b.ID, booking.StatusCancelled); err != nil {
		if rmErr := s.store.Remove(ctx, rec.ID); rmErr != nil {
			slog.Error("orphan cancellation record", "cancellation_id", rec.ID, "booking_id", b.ID, "error", rmErr)
		}
		if errors.Is(err, booking.ErrInvalidState) || errors.Is(err, booking.ErrConflict) || errors.Is(err, booking.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if err := s.recordCounter(ctx, rec); err != nil {
		slog.Warn("cancellation counter not updated",
			"booking_id", b.ID, "party", rec.CancelledBy, "error", err)
	}

	slog.Info("cancellation decided",
		"booking_id", b.ID,
		"cancellation_id", rec.ID,
		"party", rec.CancelledBy,
		"decision", rec.Decision,
		"rule", rec.Rule,
		"model", rec.Model,
	)
	return rec, nil
}

func (s *Service) recordCounter(ctx context.Context, rec *Record) error {
	if rec.CancelledBy == adjudication.PartyDriver {
		return s.profiles.RecordDriverCancellation(ctx, rec.DriverID)
	}
	return s.profiles.RecordRiderCancellation(ctx, rec.RiderID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Record, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ForBooking(ctx context.Context, bookingID types.ID) (*Record, error) {
	return s.store.GetByBooking(ctx, bookingID)
}

func (s *Service) ListByRider(ctx context.Context, riderID types.ID) ([]Record, error) {
	return s.store.ListByRider(ctx, riderID)
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]Record, error) {
	return s.store.ListByDriver(ctx, driverID)
}

// UpdateDecision is the out-of-band correction path; it never reruns the policy.
func (s *Service) UpdateDecision(ctx context.Context, id types.ID, label string) (*Record, error) {
	d := types.Decision(label)
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, label)
	}
	rec, err := s.store.UpdateDecision(ctx, id, d)
	if err != nil {
		return nil, err
	}
	slog.Info("cancellation decision corrected", "cancellation_id", id, "decision", d)
	return rec, nil
}

func partyErr(role string, id types.ID, err error) error {
	if errors.Is(err, profile.ErrNotFound) {
		slog.Error("booking references a missing profile", "role", role, "id", id)
		return fmt.Errorf("%w: %s %s", ErrPartyNotFound, role, id)
	}
	return err
}
