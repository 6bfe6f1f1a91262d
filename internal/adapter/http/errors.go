package http

import (
	"errors"
	"net/http"

	"budget-portal/internal/auth"
	"budget-portal/internal/domain/program"
	"budget-portal/internal/domain/user"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// httpStatus maps domain errors → HTTP codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, program.ErrNotFound),
		errors.Is(err, program.ErrDocumentNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, program.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, program.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, program.ErrTerminalState),
		errors.Is(err, program.ErrConflict),
		errors.Is(err, user.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Internal failures are logged
// and reported without their cause.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
		return c.JSON(code, ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}
