// README: Step-by-step fact elicitation that asks only what the cascade will read.
package adjudication

import (
	"context"
	"fmt"
)

// FactSource answers one question at a time. Implementations may block on a
// person (CLI) or read a request body (HTTP).
type FactSource interface {
	CancellingParty(ctx context.Context) (Party, error)
	Arrived(ctx context.Context) (bool, error)
	DistanceFromPin(ctx context.Context) (int, error)
	WaitTime(ctx context.Context) (int, error)
	CancellationTime(ctx context.Context) (int, error)
}

// RiderStanding is the rider's history at the moment of cancellation.
type RiderStanding struct {
	Rating           float64
	CancellationRate float64
}

// Collect walks the cascade and stops asking once a rule has matched, so a
// driver who never arrived is not asked for distance or wait time.
func (e *Engine) Collect(ctx context.Context, src FactSource, standing RiderStanding) (Facts, error) {
	f := Facts{
		RiderRating:           standing.Rating,
		RiderCancellationRate: floatPtr(standing.CancellationRate),
	}

	party, err := src.CancellingParty(ctx)
	if err != nil {
		return Facts{}, err
	}
	if f.CancelledBy, err = ParseParty(string(party)); err != nil {
		return Facts{}, err
	}
	if f.Arrived, err = src.Arrived(ctx); err != nil {
		return Facts{}, err
	}

	if f.CancelledBy == PartyDriver {
		if !f.Arrived {
			return f, nil
		}
		if f.DistanceFromPin, err = askInt(ctx, "distance_from_pin", src.DistanceFromPin); err != nil {
			return Facts{}, err
		}
		if *f.DistanceFromPin > e.th.MaxPinDistance {
			return f, nil
		}
		if f.WaitTime, err = askInt(ctx, "wait_time", src.WaitTime); err != nil {
			return Facts{}, err
		}
		return f, nil
	}

	if f.Arrived {
		if f.DistanceFromPin, err = askInt(ctx, "distance_from_pin", src.DistanceFromPin); err != nil {
			return Facts{}, err
		}
		if f.WaitTime, err = askInt(ctx, "wait_time", src.WaitTime); err != nil {
			return Facts{}, err
		}
		return f, nil
	}
	if f.CancellationTime, err = askInt(ctx, "cancellation_time", src.CancellationTime); err != nil {
		return Facts{}, err
	}
	return f, nil
}

func askInt(ctx context.Context, name string, ask func(context.Context) (int, error)) (*int, error) {
	v, err := ask(ctx)
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, fmt.Errorf("%w: %s must be non-negative, got %d", ErrInvalidInput, name, v)
	}
	return intPtr(v), nil
}

// StaticSource serves pre-filled answers, e.g. from an HTTP request body.
// Asking for a field that was not supplied is an input error.
type StaticSource struct {
	Party            string
	DriverArrived    *bool
	Distance         *int
	Wait             *int
	ElapsedSinceBook *int
}

func (s StaticSource) CancellingParty(context.Context) (Party, error) {
	return ParseParty(s.Party)
}

func (s StaticSource) Arrived(context.Context) (bool, error) {
	if s.DriverArrived == nil {
		return false, required("arrived")
	}
	return *s.DriverArrived, nil
}

func (s StaticSource) DistanceFromPin(context.Context) (int, error) {
	return staticInt("distance_from_pin", s.Distance)
}

func (s StaticSource) WaitTime(context.Context) (int, error) {
	return staticInt("wait_time", s.Wait)
}

func (s StaticSource) CancellationTime(context.Context) (int, error) {
	return staticInt("cancellation_time", s.ElapsedSinceBook)
}

func staticInt(name string, v *int) (int, error) {
	if v == nil {
		return 0, required(name)
	}
	return *v, nil
}
