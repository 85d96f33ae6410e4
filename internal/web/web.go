package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"custodycal/internal/config"
	"custodycal/internal/custody"
	"custodycal/internal/ics"
	appLog "custodycal/internal/log"
	"custodycal/internal/report"
)

// Server serves the latest computed custody result over HTTP. The result is
// swapped in by the refresh job; requests never trigger a computation.
type Server struct {
	cfg     *config.Config
	mux     *http.ServeMux
	metrics http.Handler

	mu       sync.RWMutex
	snapshot *snapshot
	lastErr  *failure
}

// snapshot is one computed result and the views derived from it.
type snapshot struct {
	result    *custody.Result
	document  report.Document
	generated time.Time
}

type failure struct {
	msg string
	at  time.Time
}

// NewServer constructs a new Server. metrics may be nil, in which case
// /metrics is not served.
func NewServer(cfg *config.Config, metrics http.Handler) *Server {
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		metrics: metrics,
	}
	s.registerRoutes()
	return s
}

// SetResult publishes a new result. res must have been computed with
// KeepDays for /api/days to have content.
func (s *Server) SetResult(res *custody.Result, generated time.Time) {
	snap := &snapshot{
		result:    res,
		document:  report.BuildDocument(res, generated),
		generated: generated,
	}
	s.mu.Lock()
	s.snapshot = snap
	s.lastErr = nil
	s.mu.Unlock()
}

// SetError records a failed refresh. The previous result stays served.
func (s *Server) SetError(err error, at time.Time) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.lastErr = &failure{msg: err.Error(), at: at}
	s.mu.Unlock()
}

func (s *Server) current() (*snapshot, *failure) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.lastErr
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials count as disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="custodycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/summary", s.handleSummary)
	s.mux.HandleFunc("/api/days", s.handleDays)
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("/audit.csv", s.handleAudit)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// summaryResponse is the JSON response shape for /api/summary.
type summaryResponse struct {
	Generated  time.Time       `json:"generated"`
	StartYear  int             `json:"start_year"`
	EndYear    int             `json:"end_year"`
	TimeZone   string          `json:"timezone"`
	Custodians []string        `json:"custodians"`
	Events     int             `json:"events"`
	Overall    report.Period   `json:"overall"`
	Years      []report.Period `json:"years"`
	Months     []report.Period `json:"months"`

	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
}

// daysResponse is the JSON response shape for /api/days.
type daysResponse struct {
	TimeZone string           `json:"timezone"`
	Year     int              `json:"year,omitempty"`
	Month    int              `json:"month,omitempty"`
	Days     []report.DayView `json:"days"`
}

// ready returns the current snapshot, or writes 503 when there is none yet.
func (s *Server) ready(w http.ResponseWriter) (*snapshot, *failure, bool) {
	snap, fail := s.current()
	if snap == nil {
		msg := "no schedule computed yet"
		if fail != nil {
			msg = "schedule computation failed: " + fail.msg
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return nil, fail, false
	}
	return snap, fail, true
}

// handleSummary returns month, year and overall percentages.
//
// GET /api/summary
func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	snap, fail, ok := s.ready(w)
	if !ok {
		return
	}
	doc := snap.document
	resp := summaryResponse{
		Generated:  snap.generated,
		StartYear:  doc.StartYear,
		EndYear:    doc.EndYear,
		TimeZone:   doc.TimeZone,
		Custodians: doc.Custodians,
		Events:     len(snap.result.Events),
		Overall:    doc.Overall,
		Years:      doc.Years,
		Months:     doc.Months,
	}
	if fail != nil {
		resp.LastError = fail.msg
		at := fail.at
		resp.LastErrorAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDays returns per-day custody bars.
//
// GET /api/days?year=2025&month=3
//   - year:  calendar year (optional; all days when omitted)
//   - month: 1-12, requires year
func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := parseIntDefault(q.Get("year"), 0)
	if err != nil || year < 0 {
		writeError(w, http.StatusBadRequest, "year must be a positive integer")
		return
	}
	month, err := parseIntDefault(q.Get("month"), 0)
	if err != nil || month < 0 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}
	if month != 0 && year == 0 {
		writeError(w, http.StatusBadRequest, "month requires year")
		return
	}

	snap, _, ok := s.ready(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, daysResponse{
		TimeZone: snap.document.TimeZone,
		Year:     year,
		Month:    month,
		Days:     report.FilterDays(snap.document.Days, year, month),
	})
}

// handleCalendar serves the merged custody events as an iCalendar feed.
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	snap, _, ok := s.ready(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	err := ics.Write(w, snap.result.Events, ics.Options{
		Name:  s.cfg.Output.CalendarName,
		Stamp: snap.generated,
	})
	if err != nil {
		appLog.Error("failed to write calendar response", err)
	}
}

// handleAudit serves the percentage calculation audit as CSV.
func (s *Server) handleAudit(w http.ResponseWriter, _ *http.Request) {
	snap, _, ok := s.ready(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="custody_calculation_audit.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := report.WriteAudit(w, snap.result, snap.generated); err != nil {
		appLog.Error("failed to write audit response", err)
	}
}

func parseIntDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
