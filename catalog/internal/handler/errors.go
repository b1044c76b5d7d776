package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// APIError is the uniform error payload for every failed request.
type APIError struct {
	Timestamp     time.Time        `json:"timestamp"`
	Status        int              `json:"status"`
	Error         string           `json:"error"`
	Message       string           `json:"message"`
	Path          string           `json:"path"`
	CorrelationID string           `json:"correlationId,omitempty"`
	Details       []FieldViolation `json:"details,omitempty"`
}

type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorHandler maps typed failures to their status code and shapes the
// APIError body. Anything unrecognized degrades to 500 with a generic
// message, full detail stays in the server log.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "An unexpected error occurred"
	var details []FieldViolation

	var (
		vErrs   validator.ValidationErrors
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &vErrs):
		status = http.StatusBadRequest
		message = "Validation failed"
		details = violations(vErrs)
	case errors.As(err, &httpErr):
		status = httpErr.Code
		switch m := httpErr.Message.(type) {
		case string:
			message = m
		case error:
			message = m.Error()
		default:
			message = fmt.Sprintf("%v", m)
		}
	default:
		h.log.Error("unhandled error",
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	apiErr := APIError{
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Error:         http.StatusText(status),
		Message:       message,
		Path:          c.Request().URL.Path,
		CorrelationID: c.Response().Header().Get(echo.HeaderXRequestID),
		Details:       details,
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, apiErr)
	}
	if err != nil {
		h.log.Error("write error response", zap.Error(err))
	}
}

func violations(vErrs validator.ValidationErrors) []FieldViolation {
	out := make([]FieldViolation, 0, len(vErrs))
	for _, fe := range vErrs {
		out = append(out, FieldViolation{
			Field:   jsonField(fe.Field()),
			Message: violationMessage(fe),
		})
	}
	return out
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on %q", fe.Tag())
	}
}

func jsonField(name string) string {
	if name == "ISBN" {
		return "isbn"
	}
	return strings.ToLower(name[:1]) + name[1:]
}
