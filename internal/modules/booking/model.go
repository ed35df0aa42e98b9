// README: Booking aggregate and status definitions.
package booking

import (
	"strings"
	"time"

	"rideassist/internal/types"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Booking struct {
	ID        types.ID   `json:"booking_id"`
	RiderID   types.ID   `json:"rider_id"`
	DriverID  types.ID   `json:"driver_id"`
	Pickup    string     `json:"pickup"`
	Drop      string     `json:"drop"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	// ScheduleTime is the requested pickup time; nil means as soon as possible.
	ScheduleTime *time.Time `json:"schedule_time,omitempty"`
}

const (
	// ScheduleLayout is how riders type a pickup time (DD/MM/YYYY HH:MM).
	ScheduleLayout = "02/01/2006 15:04"
	scheduleShown  = "2006-01-02 15:04"
)

// ParseSchedule reads an optional pickup time in the local time zone.
// Blank input means no schedule.
func ParseSchedule(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(ScheduleLayout, s, time.Local)
	if err != nil {
		return nil, ErrBadSchedule
	}
	return &t, nil
}

// Scheduled formats the pickup time for display, or "" when unscheduled.
func (b *Booking) Scheduled() string {
	if b.ScheduleTime == nil {
		return ""
	}
	return b.ScheduleTime.In(time.Local).Format(scheduleShown)
}

// AllowedTransitions is the booking lifecycle; both targets are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusActive: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Confirmation is what a rider sees after booking. Route fields are empty
// when no route estimator is configured or the lookup failed.
type Confirmation struct {
	Booking       *Booking      `json:"booking"`
	RouteDuration time.Duration `json:"route_duration,omitempty"`
	RouteDistance string        `json:"route_distance,omitempty"`
}
