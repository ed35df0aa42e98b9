// README: Cancellation record, the persisted outcome of one adjudication.
package cancellation

import (
	"fmt"
	"strings"
	"time"

	"rideassist/internal/classifier"
	"rideassist/internal/modules/adjudication"
	"rideassist/internal/types"
)

// IDPrefix marks cancellation identifiers.
const IDPrefix = "C"

// Record copies the facts used at decision time. Fields the cascade never
// asked for stay nil and serialize as null.
type Record struct {
	ID                    types.ID           `json:"cancellation_id"`
	BookingID             types.ID           `json:"booking_id"`
	RiderID               types.ID           `json:"rider_id"`
	DriverID              types.ID           `json:"driver_id"`
	CancelledBy           adjudication.Party `json:"cancelled_by"`
	Arrived               bool               `json:"arrived"`
	DistanceFromPin       *int               `json:"distance_from_pin"`
	WaitTime              *int               `json:"wait_time"`
	RiderRating           float64            `json:"rider_rating"`
	RiderCancellationRate *float64           `json:"rider_cancellation_rate"`
	CancellationTime      *int               `json:"cancellation_time"`
	Decision              types.Decision     `json:"decision"`
	Rule                  string             `json:"rule,omitempty"`
	Model                 classifier.ModelID `json:"model,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
}

func (r *Record) Facts() adjudication.Facts {
	return adjudication.Facts{
		CancelledBy:           r.CancelledBy,
		Arrived:               r.Arrived,
		DistanceFromPin:       r.DistanceFromPin,
		WaitTime:              r.WaitTime,
		CancellationTime:      r.CancellationTime,
		RiderRating:           r.RiderRating,
		RiderCancellationRate: r.RiderCancellationRate,
	}
}

// Summary is the confirmation shown to the rider.
func (r *Record) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ride with Booking ID %s has been cancelled.\n", r.BookingID)
	fmt.Fprintf(&b, "Cancellation fee decision: %s.\n\n", r.Decision)
	b.WriteString("Details of Cancellation:\n")
	line := func(k, v string) { fmt.Fprintf(&b, "%s: %s\n", k, v) }
	line("Cancellation id", string(r.ID))
	line("Cancelled by", string(r.CancelledBy))
	line("Driver arrived", yesNo(r.Arrived))
	line("Distance from pin", optInt(r.DistanceFromPin, "m"))
	line("Wait time", optInt(r.WaitTime, "min"))
	line("Time since booking", optInt(r.CancellationTime, "min"))
	line("Rider rating", fmt.Sprintf("%.1f", r.RiderRating))
	if r.RiderCancellationRate != nil {
		line("Rider cancellation rate", fmt.Sprintf("%.1f%%", *r.RiderCancellationRate))
	}
	switch {
	case r.Rule != "":
		line("Decided by rule", r.Rule)
	case r.Model != "":
		line("Decided by model", string(r.Model))
	}
	line("Created at", r.CreatedAt.Format(time.RFC3339))
	return strings.TrimRight(b.String(), "\n")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func optInt(v *int, unit string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d %s", *v, unit)
}
