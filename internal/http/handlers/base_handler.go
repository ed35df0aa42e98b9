// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rideassist/internal/classifier"
	"rideassist/internal/modules/adjudication"
	"rideassist/internal/modules/aiusage"
	"rideassist/internal/modules/booking"
	"rideassist/internal/modules/cancellation"
	"rideassist/internal/modules/profile"
	"rideassist/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the short alphanumeric ids used for riders, drivers,
// bookings and cancellations.
func isValidID(v string) bool {
	if v == "" || len(v) > 32 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '-' {
			continue
		}
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (types.ID, bool) {
	v := strings.TrimSpace(c.Param(name))
	if !isValidID(v) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(v), true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps domain sentinels to status codes. Unknown errors
// are logged and reported as 500 without detail.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, profile.ErrBadRequest),
		errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, adjudication.ErrInvalidInput),
		errors.Is(err, cancellation.ErrInvalidDecision):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, profile.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, profile.ErrNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, cancellation.ErrBookingNotFound),
		errors.Is(err, cancellation.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, profile.ErrAlreadyExists),
		errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrConflict),
		errors.Is(err, cancellation.ErrBusy),
		errors.Is(err, cancellation.ErrDuplicate):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, cancellation.ErrPartyNotFound):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, aiusage.ErrInsufficientTokens):
		writeError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, booking.ErrNoDriver):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, classifier.ErrSchemaMismatch):
		slog.Error("classifier schema mismatch", "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// factsReq carries cancellation facts in a request body. Only the fields the
// decision path needs have to be present.
type factsReq struct {
	CancelledBy      string `json:"cancelled_by"`
	DriverArrived    *bool  `json:"driver_arrived"`
	DistanceFromPin  *int   `json:"distance_from_pin"`
	WaitTime         *int   `json:"wait_time"`
	CancellationTime *int   `json:"cancellation_time"`
}

func (f factsReq) source() adjudication.FactSource {
	return adjudication.StaticSource{
		Party:            f.CancelledBy,
		DriverArrived:    f.DriverArrived,
		Distance:         f.DistanceFromPin,
		Wait:             f.WaitTime,
		ElapsedSinceBook: f.CancellationTime,
	}
}
