// README: Cancellation handlers: adjudicate a cancel, read and correct records.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideassist/internal/modules/cancellation"
	"rideassist/internal/types"
)

type CancellationHandler struct {
	cancellations *cancellation.Service
}

func NewCancellationHandler(svc *cancellation.Service) *CancellationHandler {
	return &CancellationHandler{cancellations: svc}
}

type cancelBookingReq struct {
	RiderID string `json:"rider_id"`
	factsReq
}

type cancelBookingResp struct {
	Cancellation *cancellation.Record `json:"cancellation"`
	Summary      string               `json:"summary"`
}

// Cancel handles POST /api/bookings/:id/cancel.
func (h *CancellationHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req cancelBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	rec, err := h.cancellations.Cancel(c.Request.Context(), cancellation.CancelCommand{
		BookingID: id,
		RiderID:   types.ID(req.RiderID),
		Source:    req.source(),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cancelBookingResp{Cancellation: rec, Summary: rec.Summary()})
}

// Get handles GET /api/cancellations/:id.
func (h *CancellationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.cancellations.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, rec)
}

// ForBooking handles GET /api/bookings/:id/cancellation.
func (h *CancellationHandler) ForBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.cancellations.ForBooking(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, rec)
}

// ListByRider handles GET /api/riders/:id/cancellations.
func (h *CancellationHandler) ListByRider(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.cancellations.ListByRider(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if list == nil {
		list = []cancellation.Record{}
	}
	writeJSON(c, http.StatusOK, gin.H{"cancellations": list})
}

type updateDecisionReq struct {
	Decision string `json:"decision"`
}

// UpdateDecision handles PATCH /api/cancellations/:id/decision.
func (h *CancellationHandler) UpdateDecision(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateDecisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	rec, err := h.cancellations.UpdateDecision(c.Request.Context(), id, req.Decision)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, rec)
}
