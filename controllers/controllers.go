package controllers

import (
	"errors"
	"net/http"

	"github.com/squarespool/squares-backend/services"
	"github.com/squarespool/squares-backend/store"

	"github.com/gin-gonic/gin"
)

var engine *services.Engine

// Init wires the engine; called once from main before routes are served.
func Init(e *services.Engine) {
	engine = e
}

// statusFor maps engine/store errors to HTTP statuses. State conflicts
// are 409 so clients know to re-fetch and retry deliberately; validation
// problems are 400; missing resources are 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrGameNotFound),
		errors.Is(err, store.ErrParticipantNotFound),
		errors.Is(err, store.ErrTokenInvalid):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, store.ErrAlreadyTaken),
		errors.Is(err, store.ErrNotOwner),
		errors.Is(err, store.ErrQuotaExceeded),
		errors.Is(err, store.ErrGameNotPending),
		errors.Is(err, store.ErrAlreadySubmitted),
		errors.Is(err, store.ErrIncompleteSelection),
		errors.Is(err, store.ErrDuplicateRecoveryID):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidCell),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrNegativeAmount),
		errors.Is(err, services.ErrCodeRejected):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrVerifyNotConfigured),
		errors.Is(err, services.ErrMailNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
