// README: A logged-in conversation: interpret, dispatch, remember recent turns.
package assistant

import (
	"context"

	"rideassist/internal/modules/adjudication"
	"rideassist/internal/types"
)

// maxHistory bounds how many past lines are sent back to the interpreter.
const maxHistory = 20

type Session struct {
	assistant   *Assistant
	interpreter Interpreter
	riderID     types.ID
	history     []string
}

func NewSession(a *Assistant, interp Interpreter, riderID types.ID) *Session {
	return &Session{assistant: a, interpreter: interp, riderID: riderID}
}

func (s *Session) RiderID() types.ID {
	return s.riderID
}

// Send handles one user turn. Expected domain failures come back as a reply
// rather than an error so the conversation can continue.
func (s *Session) Send(ctx context.Context, text string, facts adjudication.FactSource) (*Response, error) {
	in, err := s.interpreter.Interpret(ctx, text, s.history)
	if err != nil {
		return nil, err
	}
	s.remember("User: " + text)

	if in.Intent == nil {
		s.remember("Assistant: " + in.Reply)
		return &Response{Reply: in.Reply}, nil
	}

	resp, err := s.assistant.Handle(ctx, s.riderID, in.Intent, facts)
	if err != nil {
		reply, ok := ErrorReply(err)
		if !ok {
			return nil, err
		}
		resp = &Response{Reply: reply}
	}
	s.remember("Assistant: " + resp.Reply)
	return resp, nil
}

func (s *Session) remember(line string) {
	s.history = append(s.history, line)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}
