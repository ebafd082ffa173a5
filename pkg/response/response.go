package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/livepoll/backend/pkg/apperror"
)

// InternalMessage is the only text callers see for unexpected failures.
const InternalMessage = "internal server error"

// ErrorBody is the error response shape: a single error message.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody carries a plain acknowledgement.
type MessageBody struct {
	Message string `json:"message"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Accepted sends a 202 JSON response with data.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, data)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, ErrorBody{Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, ErrorBody{Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: err})
}

// Error maps err to a status by its apperror kind. Conflicts are reported as 400.
// Anything unclassified is logged and answered with InternalMessage.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	var e *apperror.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case apperror.KindValidation, apperror.KindConflict:
			BadRequest(c, e.Message)
			return
		case apperror.KindNotFound:
			NotFound(c, e.Message)
			return
		case apperror.KindAuth:
			Unauthorized(c, e.Message)
			return
		}
	}
	if logger != nil {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	Internal(c, InternalMessage)
}
