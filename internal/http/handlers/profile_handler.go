// README: Rider and driver registration and rider login handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideassist/internal/modules/profile"
	"rideassist/internal/types"
)

type ProfileHandler struct {
	profiles *profile.Service
}

func NewProfileHandler(svc *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: svc}
}

// riderView hides the password hash.
type riderView struct {
	ID                 types.ID  `json:"rider_id"`
	Rating             float64   `json:"rating"`
	TotalRidesBooked   int       `json:"total_rides_booked"`
	PriorCancellations int       `json:"prior_cancellations"`
	CancellationRate   float64   `json:"cancellation_rate"`
	CreatedAt          time.Time `json:"created_at"`
}

func viewRider(r *profile.Rider) riderView {
	return riderView{
		ID:                 r.ID,
		Rating:             r.Rating,
		TotalRidesBooked:   r.TotalRidesBooked,
		PriorCancellations: r.PriorCancellations,
		CancellationRate:   r.CancellationRate,
		CreatedAt:          r.CreatedAt,
	}
}

type createRiderReq struct {
	RiderID            string   `json:"rider_id"`
	Password           string   `json:"password"`
	Rating             *float64 `json:"rating"`
	TotalRidesBooked   int      `json:"total_rides_booked"`
	PriorCancellations int      `json:"prior_cancellations"`
}

// CreateRider handles POST /api/riders.
func (h *ProfileHandler) CreateRider(c *gin.Context) {
	var req createRiderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.profiles.RegisterRider(c.Request.Context(), profile.RegisterRiderCommand{
		ID:                 types.ID(req.RiderID),
		Password:           req.Password,
		Rating:             req.Rating,
		TotalRidesBooked:   req.TotalRidesBooked,
		PriorCancellations: req.PriorCancellations,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, viewRider(r))
}

type loginReq struct {
	RiderID  string `json:"rider_id"`
	Password string `json:"password"`
}

// Login handles POST /api/riders/login.
func (h *ProfileHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.profiles.Authenticate(c.Request.Context(), types.ID(req.RiderID), req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, viewRider(r))
}

// GetRider handles GET /api/riders/:id.
func (h *ProfileHandler) GetRider(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.profiles.Rider(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, viewRider(r))
}

type createDriverReq struct {
	DriverID           string   `json:"driver_id"`
	Rating             *float64 `json:"rating"`
	TotalRidesAccepted int      `json:"total_rides_accepted"`
	PriorCancellations int      `json:"prior_cancellations"`
}

// CreateDriver handles POST /api/drivers.
func (h *ProfileHandler) CreateDriver(c *gin.Context) {
	var req createDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.profiles.RegisterDriver(c.Request.Context(), profile.RegisterDriverCommand{
		ID:                 types.ID(req.DriverID),
		Rating:             req.Rating,
		TotalRidesAccepted: req.TotalRidesAccepted,
		PriorCancellations: req.PriorCancellations,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, d)
}
