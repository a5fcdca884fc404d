package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophvote/internal/common"
	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/gin-gonic/gin"
)

type errorWriter struct {
	logger logging.Logger
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorAlreadyVoted), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// write renders err as {"error": msg}. Internal failures are logged and
// reported without detail.
func (w *errorWriter) write(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		w.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = common.ErrorInternal.Error()
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func (w *errorWriter) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
