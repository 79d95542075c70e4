package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"socrat/internal/apperr"
	"socrat/pkg/logger"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	RespondErrorWithData(c, code, message, nil)
}

// RespondErrorWithData is used when the caller still needs the current screen
// state, for example after a failed quiz load that can be retried.
func RespondErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

// StatusFor maps an error kind to the HTTP status returned by the gateway.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	}
	switch apperr.KindOf(err) {
	case apperr.ValidationFailed:
		return http.StatusBadRequest
	case apperr.AuthFailed:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.RemoteUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func HandleServiceError(c *gin.Context, log *logger.Logger, err error, data interface{}) {
	code := StatusFor(err)
	msg := apperr.Message(err)
	if code == http.StatusInternalServerError {
		if log != nil {
			log.Error("unhandled service error", "trace_id", traceID(c), "error", err)
		}
		msg = "Internal server error"
	} else if code == http.StatusBadGateway && log != nil {
		log.Warn("quiz service unavailable", "trace_id", traceID(c), "error", err)
	}
	RespondErrorWithData(c, code, msg, data)
}
