package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"wcl-rankings/internal/constants"
	"wcl-rankings/internal/domain"
	"wcl-rankings/internal/service"

	"github.com/rs/zerolog"
)

// SessionServer exposes the session to the page overlay as a small JSON API.
type SessionServer struct {
	session *service.SessionService
	logger  zerolog.Logger
}

func NewSessionServer(session *service.SessionService, logger zerolog.Logger) *SessionServer {
	return &SessionServer{session: session, logger: logger}
}

func (s *SessionServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/session", s.getSession)
	mux.HandleFunc("PUT /api/credentials", s.putCredentials)
	mux.HandleFunc("PUT /api/filters", s.putFilters)
	mux.HandleFunc("POST /api/authenticate", s.postAuthenticate)
	mux.HandleFunc("POST /api/rankings", s.postRankings)
	mux.HandleFunc("POST /api/reset/auth", s.postResetAuth)
	mux.HandleFunc("POST /api/reset/all", s.postResetAll)
	return mux
}

type credentialsRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type filtersRequest struct {
	Metric     domain.Metric     `json:"metric"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

type errorBody struct {
	Error   string           `json:"error"`
	Session service.Snapshot `json:"session"`
}

func (s *SessionServer) getSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// putCredentials stores new application keys and immediately tries them.
func (s *SessionServer) putCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.session.Login(r.Context(), req.ClientID, req.ClientSecret); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *SessionServer) putFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.session.SetFilters(r.Context(), domain.Filters{Metric: req.Metric, Difficulty: req.Difficulty}); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *SessionServer) postAuthenticate(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Authenticate(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// postRankings fetches rankings. An empty body or empty object uses the stored filters.
func (s *SessionServer) postRankings(w http.ResponseWriter, r *http.Request) {
	var filters *domain.RankingFilters
	if r.ContentLength != 0 {
		var req domain.RankingFilters
		if !s.decode(w, r, &req) {
			return
		}
		if req.Metric != "" && !req.Metric.Valid() {
			s.writeError(w, r, &domain.ValidationError{Field: "metric", Value: string(req.Metric)})
			return
		}
		if req.Difficulty != "" && !req.Difficulty.Valid() {
			s.writeError(w, r, &domain.ValidationError{Field: "difficulty", Value: string(req.Difficulty)})
			return
		}
		if req != (domain.RankingFilters{}) {
			filters = &req
		}
	}

	if _, err := s.session.FetchCharacterData(r.Context(), filters); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *SessionServer) postResetAuth(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ResetAuth(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *SessionServer) postResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ResetEverything(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *SessionServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, &domain.ValidationError{Field: "body", Value: err.Error()})
		return false
	}
	return true
}

func (s *SessionServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	zerolog.Ctx(r.Context()).Warn().Err(err).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, errorBody{Error: err.Error(), Session: s.session.Snapshot()})
}

func (s *SessionServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func statusFor(err error) int {
	var (
		valErr   *domain.ValidationError
		netErr   *domain.NetworkError
		parseErr *domain.ParseError
		emptyErr *domain.EmptyResultError
	)

	switch {
	case errors.Is(err, domain.ErrAlreadyInProgress):
		return http.StatusConflict
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case service.IsAuthFailure(err):
		return http.StatusUnauthorized
	case errors.As(err, &netErr), errors.As(err, &parseErr), errors.As(err, &emptyErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
