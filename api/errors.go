package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tuannda91/courtbook/internal/repository"
	"github.com/tuannda91/courtbook/internal/service/reservation"
)

// writeError maps service errors to the shared envelope. Unknown errors
// become opaque 500s so internal detail never leaks to guests.
func writeError(c *gin.Context, err error) {
	var resErr *reservation.Error
	if errors.As(err, &resErr) {
		c.JSON(resErr.Status, gin.H{"error": resErr.Message, "code": resErr.Code})
		return
	}
	if errors.Is(err, repository.ErrSubCourtNotFound) ||
		errors.Is(err, repository.ErrBookingNotFound) ||
		errors.Is(err, repository.ErrPaymentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
}
