package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
	"github.com/SergeyShakirov/TaskGo/backend/repository"
	"github.com/SergeyShakirov/TaskGo/backend/service"
)

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, model.Response{Success: true, Data: data, Message: message})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.Response{Success: false, Message: message})
}

// failErr maps a service or repository error onto the envelope. Anything
// unrecognised is a 500 carrying the error text.
func failErr(c *gin.Context, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, service.ErrBriefRequired),
		errors.Is(err, service.ErrExportInputRequired),
		errors.Is(err, service.ErrUnsupportedFormat):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrTaskNotFound):
		fail(c, http.StatusNotFound, "Task not found")
	case errors.Is(err, service.ErrArtifactNotFound):
		fail(c, http.StatusNotFound, "File not found")
	default:
		logger.Error(c.Request.Context(), fallback, "error", err)
		_ = c.Error(err)
		msg := err.Error()
		if msg == "" {
			msg = fallback
		}
		fail(c, http.StatusInternalServerError, msg)
	}
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched so
// field validation can report what is missing.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
