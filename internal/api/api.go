// Package api serves the read-only inspection endpoints of the scanner.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dog-scout/internal/domain"
	"dog-scout/internal/notify"
	"dog-scout/internal/observability"
	"dog-scout/internal/pipeline"
	"dog-scout/internal/storage"
)

const (
	defaultAlertLimit = 50
	defaultJobLimit   = 100
	maxLimit          = 1000
)

// Options configures the API server.
type Options struct {
	Stores storage.Stores
	Hub    *notify.Hub // optional live feed at /ws/feed
	Status *Status     // optional cycle status at /status
	Log    logrus.FieldLogger
}

// Server holds the handlers.
type Server struct {
	stores storage.Stores
	hub    *notify.Hub
	status *Status
	log    logrus.FieldLogger
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	status := opts.Status
	if status == nil {
		status = NewStatus(time.Now)
	}
	return &Server{
		stores: opts.Stores,
		hub:    opts.Hub,
		status: status,
		log:    log.WithField("component", "api"),
	}
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dog-scout"})
	})
	r.GET("/metrics", gin.WrapH(observability.Handler()))
	r.GET("/status", s.getStatus)
	if s.hub != nil {
		r.GET("/ws/feed", s.hub.ServeWS)
	}

	v1 := r.Group("/api/v1")
	{
		alerts := v1.Group("/alerts")
		{
			alerts.GET("", s.listAlerts)
			alerts.GET("/:id", s.getAlert)
			alerts.GET("/:id/timeline", s.getTimeline)
		}
		v1.GET("/recheck-jobs", s.listJobs)
	}
	return r
}

func (s *Server) listAlerts(c *gin.Context) {
	limit, ok := parseLimit(c, defaultAlertLimit)
	if !ok {
		return
	}
	alerts, err := s.stores.Alerts.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, "list alerts", err)
		return
	}
	out := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, newAlertView(a))
	}
	c.JSON(http.StatusOK, gin.H{"alerts": out, "limit": limit})
}

func (s *Server) getAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := s.stores.Alerts.GetByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		s.internalError(c, "get alert", err)
		return
	}
	c.JSON(http.StatusOK, newAlertView(a))
}

func (s *Server) getTimeline(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	tl, err := storage.TimelineForAlert(ctx, s.stores.Alerts, s.stores.Results, id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		s.internalError(c, "build timeline", err)
		return
	}
	results, err := s.stores.Results.ListByAlert(ctx, id)
	if err != nil {
		s.internalError(c, "list recheck results", err)
		return
	}
	jobs, err := s.stores.Jobs.ListByAlert(ctx, id)
	if err != nil {
		s.internalError(c, "list recheck jobs", err)
		return
	}

	resp := timelineView{
		AlertID:  id,
		Initial:  tl.Initial,
		Score5m:  tl.Score5m,
		Score15m: tl.Score15m,
		Summary:  tl.SummaryLine(),
		Results:  make([]resultView, 0, len(results)),
		Jobs:     make([]jobView, 0, len(jobs)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, newResultView(r))
	}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, newJobView(j))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listJobs(c *gin.Context) {
	status := domain.JobStatus(c.DefaultQuery("status", string(domain.JobPending)))
	switch status {
	case domain.JobPending, domain.JobRunning, domain.JobDone, domain.JobFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	limit, ok := parseLimit(c, defaultJobLimit)
	if !ok {
		return
	}
	jobs, err := s.stores.Jobs.ListByStatus(c.Request.Context(), status, limit)
	if err != nil {
		s.internalError(c, "list recheck jobs", err)
		return
	}
	out := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, newJobView(j))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out, "status": status})
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status.Snapshot())
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.log.WithError(err).WithField("path", c.FullPath()).Error(op)
	c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return 0, false
	}
	return id, true
}

func parseLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	return min(limit, maxLimit), true
}

// Status tracks the outcome of the scanner's cycles for /status.
type Status struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	cycles  int
	last    *pipeline.ScanResult
	lastAt  time.Time
}

// NewStatus creates a Status.
func NewStatus(now func() time.Time) *Status {
	return &Status{now: now, started: now()}
}

// Record stores a finished cycle. It matches pipeline.Options.OnCycle.
func (s *Status) Record(res pipeline.ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	r := res
	r.Messages = nil
	s.last = &r
	s.lastAt = s.now()
}

// StatusView is the /status response.
type StatusView struct {
	Status    string     `json:"status"`
	Uptime    string     `json:"uptime"`
	Cycles    int        `json:"cycles"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastRun   *cycleView `json:"last_run,omitempty"`
}

type cycleView struct {
	RunID         string `json:"run_id"`
	FetchedPairs  int    `json:"fetched_pairs"`
	PassedFilters int    `json:"passed_filters"`
	Selected      int    `json:"selected"`
	Rechecked     int    `json:"rechecked"`
	Errors        int    `json:"errors"`
}

// Snapshot returns the current status.
func (s *Status) Snapshot() StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := StatusView{
		Status: "running",
		Uptime: s.now().Sub(s.started).Truncate(time.Second).String(),
		Cycles: s.cycles,
	}
	if s.last != nil {
		at := s.lastAt
		v.LastRunAt = &at
		v.LastRun = &cycleView{
			RunID:         s.last.RunID,
			FetchedPairs:  s.last.FetchedPairs,
			PassedFilters: s.last.PassedFilters,
			Selected:      s.last.Selected,
			Rechecked:     s.last.Rechecked,
			Errors:        s.last.Errors,
		}
	}
	return v
}
