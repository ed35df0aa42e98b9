// README: Assistant dispatches intents to bookings, cancellations and answers.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rideassist/internal/modules/adjudication"
	"rideassist/internal/modules/aiusage"
	"rideassist/internal/modules/booking"
	"rideassist/internal/modules/cancellation"
	"rideassist/internal/types"
)

type Bookings interface {
	Book(ctx context.Context, cmd booking.BookCommand) (*booking.Confirmation, error)
	ListActiveByRider(ctx context.Context, riderID types.ID) ([]booking.Booking, error)
}

type Cancellations interface {
	Cancel(ctx context.Context, cmd cancellation.CancelCommand) (*cancellation.Record, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Quota is satisfied by aiusage.Service.
type Quota interface {
	UseToken(ctx context.Context, uid string) error
}

type Assistant struct {
	bookings      Bookings
	cancellations Cancellations
	answerer      Answerer
	quota         Quota
}

// New wires an assistant; quota may be nil to disable the monthly limit.
func New(bookings Bookings, cancellations Cancellations, answerer Answerer, quota Quota) *Assistant {
	return &Assistant{
		bookings:      bookings,
		cancellations: cancellations,
		answerer:      answerer,
		quota:         quota,
	}
}

// Response carries the reply text plus whichever record the intent produced.
type Response struct {
	Reply        string                 `json:"reply"`
	Logout       bool                   `json:"logout,omitempty"`
	Booking      *booking.Confirmation  `json:"booking,omitempty"`
	Cancellation *cancellation.Record   `json:"cancellation,omitempty"`
	Bookings     []booking.Booking      `json:"bookings,omitempty"`
}

// Handle runs one intent for riderID. facts is only read for CancelRide.
func (a *Assistant) Handle(ctx context.Context, riderID types.ID, in Intent, facts adjudication.FactSource) (*Response, error) {
	switch v := in.(type) {
	case BookRide:
		conf, err := a.bookings.Book(ctx, booking.BookCommand{
			RiderID:  riderID,
			Pickup:   v.Pickup,
			Drop:     v.Drop,
			Schedule: v.Schedule,
		})
		if err != nil {
			return nil, err
		}
		return &Response{Reply: bookingReply(conf), Booking: conf}, nil

	case CancelRide:
		rec, err := a.cancellations.Cancel(ctx, cancellation.CancelCommand{
			BookingID: v.BookingID,
			RiderID:   riderID,
			Source:    facts,
		})
		if err != nil {
			return nil, err
		}
		return &Response{Reply: rec.Summary(), Cancellation: rec}, nil

	case ListBookings:
		list, err := a.bookings.ListActiveByRider(ctx, riderID)
		if err != nil {
			return nil, err
		}
		return &Response{Reply: listReply(list), Bookings: list}, nil

	case AnswerQuery:
		if a.quota != nil {
			if err := a.quota.UseToken(ctx, string(riderID)); err != nil {
				return nil, err
			}
		}
		answer, err := a.answerer.Answer(ctx, v.Text)
		if err != nil {
			return nil, err
		}
		return &Response{Reply: answer}, nil

	case Logout:
		return &Response{Reply: "Logged out successfully. Returning to main menu.", Logout: true}, nil
	}
	return nil, fmt.Errorf("unsupported intent %T", in)
}

// ErrorReply turns expected domain failures into a message for the rider.
// ok is false for errors that should be surfaced as failures.
func ErrorReply(err error) (reply string, ok bool) {
	switch {
	case errors.Is(err, cancellation.ErrBookingNotFound):
		return "Invalid or inactive booking ID.", true
	case errors.Is(err, cancellation.ErrPartyNotFound):
		return "We could not process this cancellation. Please contact support.", true
	case errors.Is(err, cancellation.ErrBusy):
		return "This booking is already being cancelled. Please try again in a moment.", true
	case errors.Is(err, booking.ErrNoDriver):
		return "No drivers are available right now. Please try again later.", true
	case errors.Is(err, booking.ErrBadSchedule):
		return askSchedule, true
	case errors.Is(err, booking.ErrBadRequest):
		return askPickupAndDrop, true
	case errors.Is(err, aiusage.ErrInsufficientTokens):
		return "You have used all of this month's questions.", true
	case errors.Is(err, adjudication.ErrInvalidInput):
		return "Cancellation details were invalid: " + err.Error(), true
	}
	return "", false
}

func bookingReply(conf *booking.Confirmation) string {
	b := conf.Booking
	reply := fmt.Sprintf("Ride booked from %s to %s. Booking ID: %s. Your driver is %s.", b.Pickup, b.Drop, b.ID, b.DriverID)
	if at := b.Scheduled(); at != "" {
		reply += " Scheduled for: " + at + "."
	}
	if conf.RouteDistance != "" {
		reply += fmt.Sprintf(" Estimated trip: %s, about %d min.", conf.RouteDistance, int(conf.RouteDuration.Minutes()))
	}
	return reply
}

func listReply(list []booking.Booking) string {
	if len(list) == 0 {
		return "No active bookings"
	}
	var sb strings.Builder
	sb.WriteString("Here are your active bookings:")
	for _, b := range list {
		fmt.Fprintf(&sb, "\n- %s: %s -> %s (driver %s, booked %s)",
			b.ID, b.Pickup, b.Drop, b.DriverID, b.CreatedAt.Format("2006-01-02 15:04"))
		if at := b.Scheduled(); at != "" {
			sb.WriteString(" scheduled for " + at)
		}
	}
	return sb.String()
}
