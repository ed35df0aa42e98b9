// README: Assistant handler (free-text requests routed through the interpreter).
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rideassist/internal/assistant"
	"rideassist/internal/types"
)

const assistantTimeout = 20 * time.Second

type AssistantHandler struct {
	interpreter assistant.Interpreter
	assistant   *assistant.Assistant
}

// NewAssistantHandler answers 503 when interpreter is nil.
func NewAssistantHandler(interp assistant.Interpreter, a *assistant.Assistant) *AssistantHandler {
	return &AssistantHandler{interpreter: interp, assistant: a}
}

type assistantQueryReq struct {
	RiderID string   `json:"rider_id"`
	Message string   `json:"message"`
	History []string `json:"history"`
	Facts   factsReq `json:"facts"`
}

// Query handles POST /api/assistant/query.
func (h *AssistantHandler) Query(c *gin.Context) {
	if h.interpreter == nil {
		writeError(c, http.StatusServiceUnavailable, "language model not configured")
		return
	}
	var req assistantQueryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.RiderID = strings.TrimSpace(req.RiderID)
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}
	if !isValidID(req.RiderID) {
		writeError(c, http.StatusBadRequest, "invalid rider_id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), assistantTimeout)
	defer cancel()

	in, err := h.interpreter.Interpret(ctx, req.Message, req.History)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if in.Intent == nil {
		writeJSON(c, http.StatusOK, assistant.Response{Reply: in.Reply})
		return
	}

	resp, err := h.assistant.Handle(ctx, types.ID(req.RiderID), in.Intent, req.Facts.source())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resp)
}
