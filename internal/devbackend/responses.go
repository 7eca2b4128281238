package devbackend

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/agencydesk/console/internal/models"
	"github.com/labstack/echo/v4"
)

var errAdminExists = fmt.Errorf("an admin with this email address already exists")
var errBadCredentials = fmt.Errorf("incorrect email or password")
var errAdminInactive = fmt.Errorf("the admin account is inactive")
var errRecordNotFound = fmt.Errorf("the record cannot be found")

// envelopeError is returned by handlers to answer with a fail envelope.
type envelopeError struct {
	status  int
	message string
	details map[string]any
}

func (e *envelopeError) Error() string {
	return e.message
}

func failWith(status int, message string, details map[string]any) *envelopeError {
	return &envelopeError{status: status, message: message, details: details}
}

func badRequest(err error) *envelopeError {
	return failWith(http.StatusBadRequest, err.Error(), nil)
}

func respond(c echo.Context, status int, data any, metadata models.SerializableOrderedMap, links models.SerializableOrderedMap) error {
	envelope, err := models.NewSuccessEnvelope(data)
	if err != nil {
		return err
	}
	if metadata.OrderedMap != nil {
		envelope.Metadata = metadata
	}
	if links.OrderedMap != nil {
		envelope.Links = links
	}
	return c.JSON(status, envelope)
}

func respondData(c echo.Context, status int, data any) error {
	return respond(c, status, data, models.SerializableOrderedMap{}, models.SerializableOrderedMap{})
}

// ErrorHandler renders every error as a fail envelope whose code matches the HTTP status.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var details map[string]any
	var envErr *envelopeError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &envErr):
		status = envErr.status
		message = envErr.message
		details = envErr.details
	case errors.As(err, &httpErr):
		status = httpErr.Code
		message = fmt.Sprint(httpErr.Message)
	default:
		slog.Error("DEV BACKEND", "message", "unhandled error", "error", err, "uri", c.Request().RequestURI)
	}
	envelope := models.NewFailEnvelope(status, message, details)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, envelope)
	}
	if err != nil {
		slog.Error("DEV BACKEND", "message", "cannot write the error response", "error", err)
	}
}
