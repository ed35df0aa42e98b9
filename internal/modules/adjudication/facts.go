// README: Cancellation facts, the cancelling party and boundary validation.
package adjudication

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidInput = errors.New("invalid cancellation input")

type Party string

const (
	PartyDriver Party = "driver"
	PartyRider  Party = "rider"
)

func ParseParty(s string) (Party, error) {
	switch p := Party(strings.ToLower(strings.TrimSpace(s))); p {
	case PartyDriver, PartyRider:
		return p, nil
	}
	return "", fmt.Errorf("%w: cancelling party must be driver or rider, got %q", ErrInvalidInput, s)
}

// Facts describe the situation at cancellation time. Optional fields are nil
// when the branch taken never needed them.
type Facts struct {
	CancelledBy           Party    `json:"cancelled_by"`
	Arrived               bool     `json:"arrived"`
	DistanceFromPin       *int     `json:"distance_from_pin"`
	WaitTime              *int     `json:"wait_time"`
	CancellationTime      *int     `json:"cancellation_time"`
	RiderRating           float64  `json:"rider_rating"`
	RiderCancellationRate *float64 `json:"rider_cancellation_rate"`
}

// Validate checks the fields the cascade will read for this party and arrival.
func (f Facts) Validate(th Thresholds) error {
	if _, err := ParseParty(string(f.CancelledBy)); err != nil {
		return err
	}
	if f.RiderRating < 0 {
		return fmt.Errorf("%w: rider_rating must be non-negative", ErrInvalidInput)
	}
	if err := nonNegative("distance_from_pin", f.DistanceFromPin); err != nil {
		return err
	}
	if err := nonNegative("wait_time", f.WaitTime); err != nil {
		return err
	}
	if err := nonNegative("cancellation_time", f.CancellationTime); err != nil {
		return err
	}
	if f.RiderCancellationRate != nil && *f.RiderCancellationRate < 0 {
		return fmt.Errorf("%w: rider_cancellation_rate must be non-negative", ErrInvalidInput)
	}

	switch f.CancelledBy {
	case PartyDriver:
		if !f.Arrived {
			return nil
		}
		if f.DistanceFromPin == nil {
			return required("distance_from_pin")
		}
		if *f.DistanceFromPin > th.MaxPinDistance {
			return nil
		}
		if f.WaitTime == nil {
			return required("wait_time")
		}
	case PartyRider:
		if f.RiderCancellationRate == nil {
			return required("rider_cancellation_rate")
		}
		if f.Arrived {
			if f.DistanceFromPin == nil {
				return required("distance_from_pin")
			}
			if f.WaitTime == nil {
				return required("wait_time")
			}
			return nil
		}
		if f.CancellationTime == nil {
			return required("cancellation_time")
		}
	}
	return nil
}

func nonNegative(name string, v *int) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%w: %s must be non-negative, got %d", ErrInvalidInput, name, *v)
	}
	return nil
}

func required(name string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
