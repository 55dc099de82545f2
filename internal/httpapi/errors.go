package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"todoshare/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatusOf maps an error onto an HTTP status code.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrAuthRequired), errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyMember), errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrForbidden), errors.Is(err, apperr.ErrOwnerCannotLeave):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, errorResponse{Error: msg})
		return
	}

	status := StatusOf(err)
	resp := errorResponse{Error: err.Error()}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "uri", c.Request().RequestURI, "err", err)
		resp.Error = "backend error"
	}
	_ = c.JSON(status, resp)
}
