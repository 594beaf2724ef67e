package server

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sort"

	"github.com/matzehuels/careflow/pkg/monitor"
)

// CacheEntry is one row of GET /debug/cache.
type CacheEntry struct {
	Key          string  `json:"key"`
	RemainingTTL float64 `json:"remaining_ttl_seconds"`
	Size         int     `json:"size_bytes"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	h := s.monitor.Health()
	status := http.StatusOK
	if h.Status == monitor.StatusError {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) dashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Dashboard())
}

func (s *Server) apiMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.APIMetrics())
}

func (s *Server) errorMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.ErrorMetrics())
}

func (s *Server) resetMonitor(w http.ResponseWriter, _ *http.Request) {
	s.monitor.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cacheStatus(w http.ResponseWriter, _ *http.Request) {
	entries := []CacheEntry{}
	if s.cache != nil {
		for key, st := range s.cache.Status() {
			entries = append(entries, CacheEntry{
				Key:          key,
				RemainingTTL: st.Remaining.Seconds(),
				Size:         len(st.Value),
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) cacheDelete(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusOK, map[string]int{"deleted": 0})
		return
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		n := s.cache.Size()
		s.cache.Clear()
		writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
		return
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pattern: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": s.cache.DeleteByPattern(re)})
}
