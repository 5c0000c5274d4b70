package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLoggingStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.verbosity.Status(r.Context()))
}

func (s *Server) handleLoggingEnable(w http.ResponseWriter, r *http.Request) {
	s.writeLoggingChange(w, r, s.verbosity.Enable(r.Context()))
}

func (s *Server) handleLoggingDisable(w http.ResponseWriter, r *http.Request) {
	s.writeLoggingChange(w, r, s.verbosity.Disable(r.Context()))
}

func (s *Server) handleLoggingClear(w http.ResponseWriter, r *http.Request) {
	s.writeLoggingChange(w, r, s.verbosity.Clear(r.Context()))
}

// writeLoggingChange reports the override after a change. A store that
// refused the change is surfaced as 503 along with the unchanged status.
func (s *Server) writeLoggingChange(w http.ResponseWriter, r *http.Request, ok bool) {
	st := s.verbosity.Status(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":     ok,
		"status": st,
	})
}
