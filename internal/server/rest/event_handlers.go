package rest

import (
	"net/http"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/server/models"
	"github.com/dmitrijs2005/gophevents/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type eventRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Location        *string  `json:"location"`
	StartDate       *string  `json:"startDate"`
	EndDate         *string  `json:"endDate"`
	AvailablePlaces *int     `json:"available_places"`
	Price           *float64 `json:"price"`
	ImageURL        *string  `json:"image_url"`
}

func (req eventRequest) input() services.EventInput {
	return services.EventInput{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		AvailablePlaces: req.AvailablePlaces,
		Price:           req.Price,
		ImageURL:        req.ImageURL,
	}
}

type imageRequest struct {
	ContentType string `json:"content_type"`
}

func (s *Server) writeEvents(w http.ResponseWriter, r *http.Request, list []*models.Event, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.events.List(r.Context())
	s.writeEvents(w, r, list, err)
}

func (s *Server) upcomingEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.events.Upcoming(r.Context())
	s.writeEvents(w, r, list, err)
}

func (s *Server) pastEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.events.Past(r.Context())
	s.writeEvents(w, r, list, err)
}

func (s *Server) searchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.events.Search(r.Context(), services.SearchParams{
		Query:              q.Get("q"),
		StartDate:          q.Get("start_date"),
		EndDate:            q.Get("end_date"),
		Location:           q.Get("location"),
		MinPrice:           q.Get("min_price"),
		MaxPrice:           q.Get("max_price"),
		HasAvailablePlaces: q.Has("has_available_places"),
	})
	s.writeEvents(w, r, list, err)
}

func (s *Server) showEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) eventStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.events.Statistics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) eventParticipants(w http.ResponseWriter, r *http.Request) {
	p, err := s.events.Participants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}

	var req eventRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.events.Create(r.Context(), userID, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, e)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}

	var req eventRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.events.Update(r.Context(), userID, chi.URLParam(r, "id"), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}

	if err := s.events.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) joinEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}

	e, err := s.events.Join(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) leaveEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}

	e, err := s.events.Leave(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) presignEventImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}

	var req imageRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	upload, err := s.events.PresignImage(r.Context(), userID, chi.URLParam(r, "id"), req.ContentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, upload)
}
