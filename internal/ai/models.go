package ai

// Tool calls the intent model may choose.
const (
	ToolBookRide     = "book_ride"
	ToolCancelRide   = "cancel_ride"
	ToolListBookings = "list_bookings"
	ToolAnswerQuery  = "answer_query"
	ToolLogout       = "logout"
	// ToolClarify means a required slot is missing; Reply carries the question.
	ToolClarify = "clarify"
)

// IntentResult captures the structured output from the AI model.
type IntentResult struct {
	// ToolCall is one of the Tool* constants.
	ToolCall string `json:"tool_call"`

	// Pickup and Drop are set for book_ride.
	Pickup *string `json:"pickup,omitempty"`
	Drop   *string `json:"drop,omitempty"`

	// Schedule is an optional pickup time for book_ride, DD/MM/YYYY HH:MM.
	Schedule *string `json:"schedule,omitempty"`

	// BookingID is set for cancel_ride.
	BookingID *string `json:"booking_id,omitempty"`

	// Reply is a short user-facing sentence, required for clarify.
	Reply string `json:"reply,omitempty"`
}
