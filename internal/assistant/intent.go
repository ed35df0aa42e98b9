// README: Tagged-union intents produced by an Interpreter and consumed by the Assistant.
package assistant

import (
	"context"

	"rideassist/internal/types"
)

// Intent is one of BookRide, CancelRide, ListBookings, AnswerQuery or Logout.
type Intent interface {
	intent()
}

type BookRide struct {
	Pickup string
	Drop   string

	// Schedule is an optional pickup time, DD/MM/YYYY HH:MM.
	Schedule string
}

type CancelRide struct {
	BookingID types.ID
}

type ListBookings struct{}

type AnswerQuery struct {
	Text string
}

type Logout struct{}

func (BookRide) intent()     {}
func (CancelRide) intent()   {}
func (ListBookings) intent() {}
func (AnswerQuery) intent()  {}
func (Logout) intent()       {}

// Interpretation is either an Intent ready to run or a clarifying Reply when
// a required slot is missing.
type Interpretation struct {
	Intent Intent
	Reply  string
}

type Interpreter interface {
	Interpret(ctx context.Context, text string, history []string) (Interpretation, error)
}

const (
	askPickupAndDrop = "Please provide both pickup and drop locations to book a ride."
	askSchedule      = "Invalid schedule format. Use DD/MM/YYYY HH:MM or leave it empty."
	askBookingID     = "Please provide the booking ID of the ride you want to cancel."
)
