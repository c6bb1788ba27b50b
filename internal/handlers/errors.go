package handlers

import (
	"net/http"
	"time"

	dom "Directory/internal/domain"
	"Directory/internal/dto"

	"github.com/gin-gonic/gin"
)

const unavailableMessage = "the account store is unavailable, try again later"

// statusFor maps an error kind to its HTTP status.
func statusFor(kind dom.ErrorKind) int {
	switch kind {
	case dom.KindValidation:
		return http.StatusBadRequest
	case dom.KindDuplicateField:
		return http.StatusConflict
	case dom.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError logs err and responds with the uniform error body.
// Unavailable causes are logged but never echoed to the client.
func (h *AccountHandler) writeError(c *gin.Context, err error) {
	kind := dom.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()

	ctx := c.Request.Context()
	switch kind {
	case dom.KindUnavailable:
		h.log.ErrorContext(ctx, "account.store_failure", "path", c.FullPath(), "err", err)
		msg = unavailableMessage
	case dom.KindValidation:
		h.log.DebugContext(ctx, "account.invalid_request", "path", c.FullPath(), "err", err)
	default:
		h.log.WarnContext(ctx, "account."+string(kind), "path", c.FullPath(), "err", err)
	}

	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Timestamp:  time.Now().UTC(),
		StatusCode: status,
		ErrorKind:  string(kind),
		Message:    msg,
	})
}
