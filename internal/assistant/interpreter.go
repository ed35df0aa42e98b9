// README: Interpreters: LLM tool-call routing and the numbered CLI menu.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"rideassist/internal/ai"
	"rideassist/internal/types"
)

// LLMInterpreter routes free text through an LLM tool-call prompt.
type LLMInterpreter struct {
	provider ai.LLMProvider
}

func NewLLMInterpreter(provider ai.LLMProvider) *LLMInterpreter {
	return &LLMInterpreter{provider: provider}
}

func (i *LLMInterpreter) Interpret(ctx context.Context, text string, history []string) (Interpretation, error) {
	res, err := i.provider.ParseUserIntent(ctx, text, history)
	if err != nil {
		return Interpretation{}, err
	}
	return FromIntentResult(res, text), nil
}

// FromIntentResult converts router output into an Intent. Missing slots
// become a clarification instead of an action.
func FromIntentResult(res *ai.IntentResult, text string) Interpretation {
	switch res.ToolCall {
	case ai.ToolBookRide:
		pickup, drop := deref(res.Pickup), deref(res.Drop)
		if pickup == "" || drop == "" {
			return Interpretation{Reply: askPickupAndDrop}
		}
		return Interpretation{Intent: BookRide{Pickup: pickup, Drop: drop, Schedule: deref(res.Schedule)}}
	case ai.ToolCancelRide:
		id := deref(res.BookingID)
		if id == "" {
			return Interpretation{Reply: askBookingID}
		}
		return Interpretation{Intent: CancelRide{BookingID: types.ID(id)}}
	case ai.ToolListBookings:
		return Interpretation{Intent: ListBookings{}}
	case ai.ToolAnswerQuery:
		return Interpretation{Intent: AnswerQuery{Text: text}}
	case ai.ToolLogout:
		return Interpretation{Intent: Logout{}}
	}
	reply := strings.TrimSpace(res.Reply)
	if reply == "" {
		reply = "Could you tell me a bit more about what you need?"
	}
	return Interpretation{Reply: reply}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Prompter asks the person at the terminal one question.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// MenuOptions is the numbered menu shown when no LLM is configured.
const MenuOptions = `1. Book a ride
2. Cancel a ride
3. List my bookings
4. Something else
5. Logout`

// MenuInterpreter reads a menu choice and asks for the slots it needs.
type MenuInterpreter struct {
	prompt Prompter
}

func NewMenuInterpreter(p Prompter) *MenuInterpreter {
	return &MenuInterpreter{prompt: p}
}

func (m *MenuInterpreter) Interpret(ctx context.Context, text string, _ []string) (Interpretation, error) {
	switch strings.TrimSpace(text) {
	case "1":
		pickup, err := m.prompt.Ask(ctx, "Pickup location: ")
		if err != nil {
			return Interpretation{}, err
		}
		drop, err := m.prompt.Ask(ctx, "Drop location: ")
		if err != nil {
			return Interpretation{}, err
		}
		pickup, drop = strings.TrimSpace(pickup), strings.TrimSpace(drop)
		if pickup == "" || drop == "" {
			return Interpretation{Reply: askPickupAndDrop}, nil
		}
		schedule, err := m.prompt.Ask(ctx, "Schedule time (optional, DD/MM/YYYY HH:MM): ")
		if err != nil {
			return Interpretation{}, err
		}
		return Interpretation{Intent: BookRide{Pickup: pickup, Drop: drop, Schedule: strings.TrimSpace(schedule)}}, nil
	case "2":
		id, err := m.prompt.Ask(ctx, "Booking ID: ")
		if err != nil {
			return Interpretation{}, err
		}
		if id = strings.TrimSpace(id); id == "" {
			return Interpretation{Reply: askBookingID}, nil
		}
		return Interpretation{Intent: CancelRide{BookingID: types.ID(id)}}, nil
	case "3":
		return Interpretation{Intent: ListBookings{}}, nil
	case "4":
		q, err := m.prompt.Ask(ctx, "Your question: ")
		if err != nil {
			return Interpretation{}, err
		}
		return Interpretation{Intent: AnswerQuery{Text: strings.TrimSpace(q)}}, nil
	case "5":
		return Interpretation{Intent: Logout{}}, nil
	}
	return Interpretation{Reply: fmt.Sprintf("Please choose an option:\n%s", MenuOptions)}, nil
}
