package cancellation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideassist/internal/classifier"
	"rideassist/internal/infra"
	"rideassist/internal/modules/adjudication"
	"rideassist/internal/modules/booking"
	"rideassist/internal/modules/profile"
	"rideassist/internal/types"
)

type stubClassifier struct {
	decision types.Decision
	calls    int
}

func (c *stubClassifier) Predict(classifier.ModelID, classifier.Features) (types.Decision, error) {
	c.calls++
	return c.decision, nil
}

type env struct {
	svc          *Service
	store        *FileStore
	bookings     *booking.Service
	bookingStore *booking.FileStore
	profiles     *profile.Service
	clf          *stubClassifier
	locker       *infra.LocalLocker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	ps, err := profile.OpenFileStore(dir)
	require.NoError(t, err)
	bs, err := booking.OpenFileStore(dir)
	require.NoError(t, err)
	cs, err := OpenFileStore(dir)
	require.NoError(t, err)

	profiles := profile.NewService(ps)
	_, err = profiles.RegisterRider(ctx, profile.RegisterRiderCommand{
		ID: "r1", Password: "password123", TotalRidesBooked: 3, PriorCancellations: 1,
	})
	require.NoError(t, err)
	_, err = profiles.RegisterDriver(ctx, profile.RegisterDriverCommand{ID: "d1"})
	require.NoError(t, err)

	bookings := booking.NewService(bs, profiles, nil)
	clf := &stubClassifier{decision: types.BaseVariableFee}
	locker := infra.NewLocalLocker()
	engine := adjudication.NewEngine(clf, adjudication.DefaultThresholds)

	return &env{
		svc:          NewService(cs, bookings, profiles, engine, locker),
		store:        cs,
		bookings:     bookings,
		bookingStore: bs,
		profiles:     profiles,
		clf:          clf,
		locker:       locker,
	}
}

func (e *env) book(t *testing.T) types.ID {
	t.Helper()
	conf, err := e.bookings.Book(context.Background(), booking.BookCommand{RiderID: "r1", Pickup: "Airport", Drop: "Downtown"})
	require.NoError(t, err)
	return conf.Booking.ID
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func driverNotArrived() adjudication.StaticSource {
	return adjudication.StaticSource{Party: "driver", DriverArrived: boolPtr(false)}
}

func TestCancelDriverNotArrived(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)

	rec, err := e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	require.NoError(t, err)
	assert.Equal(t, types.FeeWaived, rec.Decision)
	assert.Equal(t, adjudication.RuleDriverNotArrived, rec.Rule)
	assert.Zero(t, e.clf.calls)
	assert.True(t, strings.HasPrefix(string(rec.ID), IDPrefix))
	assert.Nil(t, rec.DistanceFromPin)
	assert.Nil(t, rec.WaitTime)
	assert.Nil(t, rec.CancellationTime)

	b, err := e.bookings.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, b.Status)

	d, _ := e.profiles.Driver(ctx, "d1")
	assert.Equal(t, 1, d.PriorCancellations)
	assert.Equal(t, 100.0, d.CancellationRate)
	r, _ := e.profiles.Rider(ctx, "r1")
	assert.Equal(t, 1, r.PriorCancellations, "rider counter must not move on a driver cancellation")

	stored, err := e.svc.ForBooking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
}

func TestCancelRiderUsesCurrentStanding(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)

	rec, err := e.svc.Cancel(ctx, CancelCommand{
		BookingID: id,
		RiderID:   "r1",
		Source:    adjudication.StaticSource{Party: "rider", DriverArrived: boolPtr(false), ElapsedSinceBook: intPtr(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, types.BaseVariableFee, rec.Decision)
	assert.Equal(t, classifier.ModelRiderEarly, rec.Model)
	assert.Equal(t, 1, e.clf.calls)
	// 1 prior cancellation over 3+1 rides at cancellation time.
	require.NotNil(t, rec.RiderCancellationRate)
	assert.Equal(t, 25.0, *rec.RiderCancellationRate)
	assert.Equal(t, 5.0, rec.RiderRating)

	r, _ := e.profiles.Rider(ctx, "r1")
	assert.Equal(t, 2, r.PriorCancellations)
	assert.Equal(t, 50.0, r.CancellationRate)
}

func TestCancelTwiceFailsWithBookingNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)

	_, err := e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	require.NoError(t, err)

	_, err = e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	recs, err := e.svc.ListByRider(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	d, _ := e.profiles.Driver(ctx, "d1")
	assert.Equal(t, 1, d.PriorCancellations)
}

func TestCancelRejectsUnknownInactiveOrForeignBookings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Cancel(ctx, CancelCommand{BookingID: "B_missing", Source: driverNotArrived()})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	done := e.book(t)
	require.NoError(t, e.bookings.Complete(ctx, booking.CompleteCommand{BookingID: done}))
	_, err = e.svc.Cancel(ctx, CancelCommand{BookingID: done, Source: driverNotArrived()})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	mine := e.book(t)
	_, err = e.svc.Cancel(ctx, CancelCommand{BookingID: mine, RiderID: "r2", Source: driverNotArrived()})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	b, _ := e.bookings.Get(ctx, mine)
	assert.Equal(t, booking.StatusActive, b.Status)
}

func TestCancelMissingPartyChangesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	orphan := &booking.Booking{
		ID:        "B_orphan",
		RiderID:   "r1",
		DriverID:  "d_gone",
		Pickup:    "a",
		Drop:      "b",
		Status:    booking.StatusActive,
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.bookingStore.Create(ctx, orphan))

	_, err := e.svc.Cancel(ctx, CancelCommand{BookingID: orphan.ID, Source: driverNotArrived()})
	assert.ErrorIs(t, err, ErrPartyNotFound)

	_, err = e.svc.ForBooking(ctx, orphan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	b, _ := e.bookings.Get(ctx, orphan.ID)
	assert.Equal(t, booking.StatusActive, b.Status)
}

func TestCancelInvalidFactsChangeNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)

	cases := []adjudication.StaticSource{
		{Party: "passenger", DriverArrived: boolPtr(true)},
		{Party: "driver", DriverArrived: boolPtr(true), Distance: intPtr(-5)},
		{Party: "driver", DriverArrived: boolPtr(true), Distance: intPtr(20)},
		{Party: "rider", DriverArrived: boolPtr(false)},
	}
	for _, src := range cases {
		_, err := e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: src})
		assert.ErrorIs(t, err, adjudication.ErrInvalidInput, "%+v", src)
	}

	b, _ := e.bookings.Get(ctx, id)
	assert.Equal(t, booking.StatusActive, b.Status)
	_, err := e.svc.ForBooking(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	d, _ := e.profiles.Driver(ctx, "d1")
	assert.Zero(t, d.PriorCancellations)
}

func TestCancelBusyWhileLocked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)

	release, err := e.locker.TryLock(ctx, string(id))
	require.NoError(t, err)
	_, err = e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	assert.ErrorIs(t, err, ErrBusy)
	release()

	_, err = e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	assert.NoError(t, err)
}

func TestConcurrentCancelsProduceOneRecord(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)

	const n = 8
	start := make(chan struct{})
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrBusy) && !errors.Is(err, ErrBookingNotFound) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, success)
	recs, _ := e.svc.ListByDriver(ctx, "d1")
	assert.Len(t, recs, 1)
}

type failingBookings struct {
	Bookings
	err error
}

func (f failingBookings) SetStatus(context.Context, types.ID, booking.Status) error {
	return f.err
}

func TestCancelRollsBackRecordWhenBookingTransitionFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)

	svc := NewService(e.store, failingBookings{Bookings: e.bookings, err: booking.ErrConflict}, e.profiles,
		adjudication.NewEngine(e.clf, adjudication.DefaultThresholds), nil)
	_, err := svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = e.svc.ForBooking(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	d, _ := e.profiles.Driver(ctx, "d1")
	assert.Zero(t, d.PriorCancellations)

	// The booking is still active, so a healthy service can cancel it.
	_, err = e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	assert.NoError(t, err)
}

type failingCounters struct {
	Profiles
}

func (failingCounters) RecordDriverCancellation(context.Context, types.ID) error {
	return errors.New("disk full")
}

func TestCancelCounterFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)

	svc := NewService(e.store, e.bookings, failingCounters{Profiles: e.profiles},
		adjudication.NewEngine(e.clf, adjudication.DefaultThresholds), nil)
	rec, err := svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	require.NoError(t, err)
	assert.Equal(t, types.FeeWaived, rec.Decision)

	b, _ := e.bookings.Get(ctx, id)
	assert.Equal(t, booking.StatusCancelled, b.Status)
}

func TestUpdateDecision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.book(t)
	rec, err := e.svc.Cancel(ctx, CancelCommand{BookingID: id, Source: driverNotArrived()})
	require.NoError(t, err)

	updated, err := e.svc.UpdateDecision(ctx, rec.ID, "base fee")
	require.NoError(t, err)
	assert.Equal(t, types.BaseFee, updated.Decision)
	assert.Equal(t, rec.Rule, updated.Rule)

	_, err = e.svc.UpdateDecision(ctx, rec.ID, "double fee")
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = e.svc.UpdateDecision(ctx, "C_missing", "base fee")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := e.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.BaseFee, got.Decision)
}

func TestRecordSummary(t *testing.T) {
	rate := 12.5
	rec := &Record{
		ID:                    "C202601010000000001",
		BookingID:             "B202601010000000001",
		CancelledBy:           adjudication.PartyDriver,
		Arrived:               true,
		DistanceFromPin:       intPtr(50),
		WaitTime:              intPtr(5),
		RiderRating:           4.2,
		RiderCancellationRate: &rate,
		Decision:              types.BaseFee,
		Model:                 classifier.ModelDriver,
		CreatedAt:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s := rec.Summary()
	assert.Contains(t, s, "Ride with Booking ID B202601010000000001 has been cancelled.")
	assert.Contains(t, s, "Cancellation fee decision: base fee.")
	assert.Contains(t, s, "Distance from pin: 50 m")
	assert.Contains(t, s, "Time since booking: n/a")
	assert.Contains(t, s, "Decided by model: driver")
}

func TestRecordFactsRoundTrip(t *testing.T) {
	rec := &Record{CancelledBy: adjudication.PartyRider, CancellationTime: intPtr(4), RiderRating: 4}
	f := rec.Facts()
	assert.Equal(t, adjudication.PartyRider, f.CancelledBy)
	assert.Equal(t, 4, *f.CancellationTime)
}
