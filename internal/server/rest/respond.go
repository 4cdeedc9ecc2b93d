package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/server/services"
	"github.com/go-chi/chi/v5/middleware"
)

var errBadBody = errors.New("invalid request body")

type errorMapping struct {
	err     error
	status  int
	message string
}

// errorMappings is checked in order with errors.Is; the first match wins.
var errorMappings = []errorMapping{
	{errBadBody, http.StatusBadRequest, "Invalid request body"},
	{common.ErrMissingFields, http.StatusBadRequest, "Missing required fields"},
	{common.ErrInvalidFormat, http.StatusBadRequest, "Invalid format"},
	{common.ErrConflict, http.StatusConflict, "User already exists"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{common.ErrUnauthenticated, http.StatusUnauthorized, "Not authenticated"},
	{common.ErrorNotFound, http.StatusNotFound, "Not found"},
	{common.ErrAlreadyVerified, http.StatusBadRequest, "Account already verified"},
	{common.ErrInvalidOrExpired, http.StatusBadRequest, "Invalid or expired code"},
	{common.ErrInvalidCurrentPassword, http.StatusBadRequest, "Current password is invalid"},
	{common.ErrForbidden, http.StatusForbidden, "Access denied"},
	{common.ErrInvalidDates, http.StatusBadRequest, "End date must be after start date"},
	{common.ErrInvalidDate, http.StatusBadRequest, "Invalid date format"},
	{common.ErrAlreadyJoined, http.StatusBadRequest, "Already joined"},
	{common.ErrEventFull, http.StatusBadRequest, "No available places"},
	{common.ErrNotAttending, http.StatusBadRequest, "Not attending this event"},
}

type messageResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(r.Context(), "failed to write response", "error", err)
	}
}

func (s *Server) writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, messageResponse{Message: message})
}

// writeError maps err to a status code and a client-safe message. Errors
// that are not recognised are logged and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		s.writeJSON(w, r, http.StatusBadRequest, messageResponse{Message: "Validation failed", Errors: verr.Fields})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			s.writeMessage(w, r, m.status, m.message)
			return
		}
	}

	s.logger.Error(r.Context(), "request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	s.writeMessage(w, r, http.StatusInternalServerError, "internal error")
}

// decode reads a JSON body into dst. An empty body leaves dst zeroed, so the
// handler reports the missing fields instead.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errBadBody
}
