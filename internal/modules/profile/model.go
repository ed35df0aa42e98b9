// README: Rider and driver profiles with their cancellation history.
package profile

import (
	"time"

	"rideassist/internal/types"
)

const (
	MaxIDLength       = 10
	MinPasswordLength = 8
	DefaultRating     = 5.0
	MaxRating         = 5.0
)

type Rider struct {
	ID                 types.ID  `json:"rider_id"`
	PasswordHash       string    `json:"password_hash"`
	Rating             float64   `json:"rating"`
	TotalRidesBooked   int       `json:"total_rides_booked"`
	PriorCancellations int       `json:"prior_cancellations"`
	CancellationRate   float64   `json:"cancellation_rate"`
	CreatedAt          time.Time `json:"created_at"`
}

type Driver struct {
	ID                 types.ID  `json:"driver_id"`
	Rating             float64   `json:"rating"`
	TotalRidesAccepted int       `json:"total_rides_accepted"`
	PriorCancellations int       `json:"prior_cancellations"`
	CancellationRate   float64   `json:"cancellation_rate"`
	CreatedAt          time.Time `json:"created_at"`
}

// CancellationRate is prior/total as a percentage, 0 with no rides and never above 100.
func CancellationRate(prior, total int) float64 {
	if total <= 0 || prior <= 0 {
		return 0
	}
	rate := float64(prior) / float64(total) * 100
	if rate > 100 {
		return 100
	}
	return rate
}

func (r *Rider) recomputeRate() {
	r.CancellationRate = CancellationRate(r.PriorCancellations, r.TotalRidesBooked)
}

func (d *Driver) recomputeRate() {
	d.CancellationRate = CancellationRate(d.PriorCancellations, d.TotalRidesAccepted)
}
