package cancellation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideassist/internal/modules/adjudication"
	"rideassist/internal/modules/booking"
	"rideassist/internal/modules/profile"
	"rideassist/internal/testutil"
	"rideassist/internal/types"
)

func TestFileStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) (Store, booking.Store, profile.Store) {
		dir := t.TempDir()
		cs, err := OpenFileStore(dir)
		require.NoError(t, err)
		bs, err := booking.OpenFileStore(dir)
		require.NoError(t, err)
		ps, err := profile.OpenFileStore(dir)
		require.NoError(t, err)
		return cs, bs, ps
	})
}

func TestPostgresStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) (Store, booking.Store, profile.Store) {
		db := testutil.Postgres(t, "ai_usage", "cancellations", "bookings", "riders", "drivers")
		return NewPostgresStore(db), booking.NewPostgresStore(db), profile.NewPostgresStore(db)
	})
}

func TestFileStoreReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cs, err := OpenFileStore(dir)
	require.NoError(t, err)
	rec := sampleRecord("C1", "B1")
	require.NoError(t, cs.Append(ctx, rec))

	reopened, err := OpenFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.GetByBooking(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, rec.Decision, got.Decision)
	assert.Nil(t, got.WaitTime)
	require.NoError(t, reopened.Append(ctx, sampleRecord("C2", "B2")))
	assert.ErrorIs(t, reopened.Append(ctx, sampleRecord("C3", "B1")), ErrDuplicate)
}

func TestFileStoreDecisionCorrectionSurvivesOtherWriter(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	server, err := OpenFileStore(dir)
	require.NoError(t, err)
	admin, err := OpenFileStore(dir)
	require.NoError(t, err)

	first := sampleRecord("C1", "B1")
	first.Decision = types.BaseFee
	require.NoError(t, server.Append(ctx, first))

	_, err = admin.UpdateDecision(ctx, "C1", types.FeeWaived)
	require.NoError(t, err)
	require.NoError(t, server.Append(ctx, sampleRecord("C2", "B2")))

	got, err := server.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, types.FeeWaived, got.Decision)

	reopened, err := OpenFileStore(dir)
	require.NoError(t, err)
	got, err = reopened.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, types.FeeWaived, got.Decision)
	assert.ErrorIs(t, admin.Append(ctx, sampleRecord("C3", "B2")), ErrDuplicate)
}

func sampleRecord(id, bookingID types.ID) *Record {
	dist := 150
	rate := 20.0
	return &Record{
		ID:                    id,
		BookingID:             bookingID,
		RiderID:               "r1",
		DriverID:              "d1",
		CancelledBy:           adjudication.PartyDriver,
		Arrived:               true,
		DistanceFromPin:       &dist,
		RiderRating:           4.5,
		RiderCancellationRate: &rate,
		Decision:              types.FeeWaived,
		Rule:                  adjudication.RuleDriverTooFar,
		CreatedAt:             time.Now().UTC().Truncate(time.Millisecond),
	}
}

func runStoreContract(t *testing.T, open func(t *testing.T) (Store, booking.Store, profile.Store)) {
	t.Helper()
	ctx := context.Background()
	store, bookings, profiles := open(t)

	require.NoError(t, profiles.CreateRider(ctx, &profile.Rider{ID: "r1", PasswordHash: "x", Rating: 4.5, CreatedAt: time.Now()}))
	require.NoError(t, profiles.CreateDriver(ctx, &profile.Driver{ID: "d1", Rating: 5, CreatedAt: time.Now()}))
	for _, id := range []types.ID{"B1", "B2"} {
		require.NoError(t, bookings.Create(ctx, &booking.Booking{
			ID: id, RiderID: "r1", DriverID: "d1", Pickup: "a", Drop: "b",
			Status: booking.StatusActive, CreatedAt: time.Now(),
		}))
	}

	first := sampleRecord("C1", "B1")
	require.NoError(t, store.Append(ctx, first))
	assert.ErrorIs(t, store.Append(ctx, sampleRecord("C2", "B1")), ErrDuplicate)
	assert.ErrorIs(t, store.Append(ctx, sampleRecord("C1", "B2")), ErrDuplicate)

	got, err := store.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, types.ID("B1"), got.BookingID)
	assert.Equal(t, adjudication.RuleDriverTooFar, got.Rule)
	assert.Empty(t, got.Model)
	require.NotNil(t, got.DistanceFromPin)
	assert.Equal(t, 150, *got.DistanceFromPin)
	assert.Nil(t, got.WaitTime)
	assert.Nil(t, got.CancellationTime)

	byBooking, err := store.GetByBooking(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, types.ID("C1"), byBooking.ID)

	_, err = store.GetByBooking(ctx, "B2")
	assert.ErrorIs(t, err, ErrNotFound)

	rs, err := store.ListByRider(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, rs, 1)
	ds, err := store.ListByDriver(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, ds, 1)

	updated, err := store.UpdateDecision(ctx, "C1", types.BaseFee)
	require.NoError(t, err)
	assert.Equal(t, types.BaseFee, updated.Decision)

	require.NoError(t, store.Remove(ctx, "C1"))
	assert.ErrorIs(t, store.Remove(ctx, "C1"), ErrNotFound)
	_, err = store.Get(ctx, "C1")
	assert.ErrorIs(t, err, ErrNotFound)

	// The booking is free again once its record is gone.
	require.NoError(t, store.Append(ctx, sampleRecord("C3", "B1")))
}
