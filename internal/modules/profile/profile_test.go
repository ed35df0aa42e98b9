// README: Profile service tests against both stores (registration, login, counters).
package profile

import (
	"context"
	"errors"
	"math"
	"testing"

	"rideassist/internal/testutil"
	"rideassist/internal/types"
)

func TestCancellationRate(t *testing.T) {
	cases := []struct {
		prior, total int
		want         float64
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 10, 0},
		{1, 4, 25},
		{2, 3, 200.0 / 3},
		{5, 2, 100},
	}
	for _, tc := range cases {
		got := CancellationRate(tc.prior, tc.total)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("CancellationRate(%d, %d) = %v, want %v", tc.prior, tc.total, got, tc.want)
		}
	}
}

func TestFileStoreService(t *testing.T) {
	runServiceSuite(t, func(t *testing.T) Store {
		store, err := OpenFileStore(t.TempDir())
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		return store
	})
}

func TestPostgresStoreService(t *testing.T) {
	runServiceSuite(t, func(t *testing.T) Store {
		db := testutil.Postgres(t, "ai_usage", "cancellations", "bookings", "riders", "drivers")
		return NewPostgresStore(db)
	})
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := NewService(store)
	mustRegisterRider(t, svc, "r_persist", 10, 1)
	mustRegisterDriver(t, svc, "d_persist")
	if err := svc.RecordBooking(ctx, "r_persist", "d_persist"); err != nil {
		t.Fatalf("record booking: %v", err)
	}

	reopened, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	r, err := reopened.GetRider(ctx, "r_persist")
	if err != nil {
		t.Fatalf("get rider: %v", err)
	}
	if r.TotalRidesBooked != 11 {
		t.Fatalf("expected 11 rides after reopen, got %d", r.TotalRidesBooked)
	}
}

func runServiceSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("register and authenticate", func(t *testing.T) {
		svc := NewService(newStore(t))
		ctx := context.Background()

		r := mustRegisterRider(t, svc, "r_login", 4, 1)
		if r.PasswordHash == "" || r.PasswordHash == "password123" {
			t.Fatalf("expected a bcrypt hash, got %q", r.PasswordHash)
		}
		if r.Rating != DefaultRating {
			t.Fatalf("expected default rating %v, got %v", DefaultRating, r.Rating)
		}
		if r.CancellationRate != 25 {
			t.Fatalf("expected rate 25, got %v", r.CancellationRate)
		}

		got, err := svc.Authenticate(ctx, "r_login", "password123")
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		if got.ID != "r_login" {
			t.Fatalf("unexpected rider %s", got.ID)
		}
		if _, err := svc.Authenticate(ctx, "r_login", "wrong-password"); err != ErrInvalidCredentials {
			t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
		}
		if _, err := svc.Authenticate(ctx, "nobody", "password123"); err != ErrInvalidCredentials {
			t.Fatalf("unknown rider: expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("duplicate ids", func(t *testing.T) {
		svc := NewService(newStore(t))
		ctx := context.Background()
		mustRegisterRider(t, svc, "r_dup", 0, 0)
		_, err := svc.RegisterRider(ctx, RegisterRiderCommand{ID: "r_dup", Password: "password123"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		mustRegisterDriver(t, svc, "d_dup")
		_, err = svc.RegisterDriver(ctx, RegisterDriverCommand{ID: "d_dup"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("invalid registrations", func(t *testing.T) {
		svc := NewService(newStore(t))
		ctx := context.Background()
		high := 5.5
		negative := -1.0
		bad := []RegisterRiderCommand{
			{ID: "", Password: "password123"},
			{ID: "r_12345678901", Password: "password123"},
			{ID: "r one", Password: "password123"},
			{ID: "rïder", Password: "password123"},
			{ID: "r/1", Password: "password123"},
			{ID: "r_short", Password: "short"},
			{ID: "r_rating", Password: "password123", Rating: &high},
			{ID: "r_neg", Password: "password123", Rating: &negative},
			{ID: "r_rides", Password: "password123", TotalRidesBooked: -1},
		}
		for _, cmd := range bad {
			if _, err := svc.RegisterRider(ctx, cmd); !errors.Is(err, ErrBadRequest) {
				t.Fatalf("register %+v: expected ErrBadRequest, got %v", cmd, err)
			}
		}
		if _, err := svc.RegisterDriver(ctx, RegisterDriverCommand{ID: "d", PriorCancellations: -2}); !errors.Is(err, ErrBadRequest) {
			t.Fatalf("driver with negative cancellations: expected ErrBadRequest, got %v", err)
		}
		if _, err := svc.RegisterDriver(ctx, RegisterDriverCommand{ID: "d 1"}); !errors.Is(err, ErrBadRequest) {
			t.Fatalf("driver id with a space: expected ErrBadRequest, got %v", err)
		}
		if _, err := svc.RegisterRider(ctx, RegisterRiderCommand{ID: "r-12345678", Password: "password123"}); err != nil {
			t.Fatalf("ten character id: %v", err)
		}
	})

	t.Run("booking and cancellation counters", func(t *testing.T) {
		svc := NewService(newStore(t))
		ctx := context.Background()
		mustRegisterRider(t, svc, "r_count", 3, 1)
		mustRegisterDriver(t, svc, "d_count")

		if err := svc.RecordBooking(ctx, "r_count", "d_count"); err != nil {
			t.Fatalf("record booking: %v", err)
		}
		r, _ := svc.Rider(ctx, "r_count")
		if r.TotalRidesBooked != 4 || r.CancellationRate != 25 {
			t.Fatalf("after booking: rides=%d rate=%v", r.TotalRidesBooked, r.CancellationRate)
		}
		d, _ := svc.Driver(ctx, "d_count")
		if d.TotalRidesAccepted != 1 || d.CancellationRate != 0 {
			t.Fatalf("driver after booking: rides=%d rate=%v", d.TotalRidesAccepted, d.CancellationRate)
		}

		if err := svc.RecordRiderCancellation(ctx, "r_count"); err != nil {
			t.Fatalf("rider cancellation: %v", err)
		}
		r, _ = svc.Rider(ctx, "r_count")
		if r.PriorCancellations != 2 || r.CancellationRate != 50 {
			t.Fatalf("after cancellation: prior=%d rate=%v", r.PriorCancellations, r.CancellationRate)
		}

		if err := svc.RecordDriverCancellation(ctx, "d_count"); err != nil {
			t.Fatalf("driver cancellation: %v", err)
		}
		if err := svc.RecordDriverCancellation(ctx, "d_count"); err != nil {
			t.Fatalf("driver cancellation: %v", err)
		}
		d, _ = svc.Driver(ctx, "d_count")
		if d.PriorCancellations != 2 || d.CancellationRate != 100 {
			t.Fatalf("driver rate should clamp at 100: prior=%d rate=%v", d.PriorCancellations, d.CancellationRate)
		}
	})

	t.Run("missing profiles", func(t *testing.T) {
		svc := NewService(newStore(t))
		ctx := context.Background()
		mustRegisterRider(t, svc, "r_alone", 0, 0)
		if err := svc.RecordBooking(ctx, "r_alone", "d_ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("booking with unknown driver: expected ErrNotFound, got %v", err)
		}
		r, _ := svc.Rider(ctx, "r_alone")
		if r.TotalRidesBooked != 0 {
			t.Fatalf("rider counter must not move when the driver is missing, got %d", r.TotalRidesBooked)
		}
		if err := svc.RecordRiderCancellation(ctx, "r_ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := svc.Driver(ctx, "d_ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list drivers", func(t *testing.T) {
		svc := NewService(newStore(t))
		ctx := context.Background()
		mustRegisterDriver(t, svc, "d_a")
		mustRegisterDriver(t, svc, "d_b")
		ds, err := svc.Drivers(ctx)
		if err != nil {
			t.Fatalf("list drivers: %v", err)
		}
		seen := map[types.ID]bool{}
		for _, d := range ds {
			seen[d.ID] = true
		}
		if !seen["d_a"] || !seen["d_b"] {
			t.Fatalf("expected both drivers, got %+v", ds)
		}
	})
}

func mustRegisterRider(t *testing.T, svc *Service, id types.ID, rides, prior int) *Rider {
	t.Helper()
	r, err := svc.RegisterRider(context.Background(), RegisterRiderCommand{
		ID:                 id,
		Password:           "password123",
		TotalRidesBooked:   rides,
		PriorCancellations: prior,
	})
	if err != nil {
		t.Fatalf("register rider %s: %v", id, err)
	}
	return r
}

func mustRegisterDriver(t *testing.T, svc *Service, id types.ID) *Driver {
	t.Helper()
	d, err := svc.RegisterDriver(context.Background(), RegisterDriverCommand{ID: id})
	if err != nil {
		t.Fatalf("register driver %s: %v", id, err)
	}
	return d
}
