// README: Booking handlers for create/get/list/complete.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideassist/internal/modules/booking"
	"rideassist/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	RiderID string `json:"rider_id"`
	Pickup  string `json:"pickup"`
	Drop    string `json:"drop"`

	// ScheduleTime is optional, DD/MM/YYYY HH:MM.
	ScheduleTime string `json:"schedule_time"`
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.RiderID) {
		writeError(c, http.StatusBadRequest, "invalid rider_id")
		return
	}
	conf, err := h.bookings.Book(c.Request.Context(), booking.BookCommand{
		RiderID:  types.ID(req.RiderID),
		Pickup:   req.Pickup,
		Drop:     req.Drop,
		Schedule: req.ScheduleTime,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, conf)
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

// ListByRider handles GET /api/riders/:id/bookings. ?status=active narrows
// the list to active bookings.
func (h *BookingHandler) ListByRider(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var (
		list []booking.Booking
		err  error
	)
	switch c.Query("status") {
	case "":
		list, err = h.bookings.ListByRider(c.Request.Context(), id)
	case string(booking.StatusActive):
		list, err = h.bookings.ListActiveByRider(c.Request.Context(), id)
	default:
		writeError(c, http.StatusBadRequest, "unsupported status filter")
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if list == nil {
		list = []booking.Booking{}
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": list})
}

type completeBookingReq struct {
	RiderID string `json:"rider_id"`
}

// Complete handles POST /api/bookings/:id/complete.
func (h *BookingHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req completeBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.bookings.Complete(c.Request.Context(), booking.CompleteCommand{
		BookingID: id,
		RiderID:   types.ID(req.RiderID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"booking_id": id, "status": booking.StatusCompleted})
}
