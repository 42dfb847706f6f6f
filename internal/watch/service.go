// Package watch polls one project's budget and serves the derived summary
// and change events over HTTP.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/pipeline"
)

// LoadFunc fetches the current bundle for the watched project.
type LoadFunc func(ctx context.Context) (model.ProjectBundle, error)

// Config controls the watch runtime behavior.
type Config struct {
	ProjectID    int64
	Source       model.ActualsSource
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is the budget state served at /v1/status and in events.
type Snapshot struct {
	At                 time.Time       `json:"at"`
	ProjectID          int64           `json:"project_id"`
	Name               string          `json:"name"`
	TotalBudget        decimal.Decimal `json:"total_budget"`
	TotalForecast      decimal.Decimal `json:"total_forecast"`
	TotalActual        decimal.Decimal `json:"total_actual"`
	EstimatedFinalCost decimal.Decimal `json:"estimated_final_cost"`
	Variance           decimal.Decimal `json:"variance"`
	Remaining          decimal.Decimal `json:"remaining"`
	ProgressPercent    decimal.Decimal `json:"progress_percent"`
	CompletedItems     int             `json:"completed_items"`
	TotalItems         int             `json:"total_items"`
	Status             model.Status    `json:"status"`
	OnTrack            bool            `json:"on_track"`
}

// Delta captures snapshot changes between polls.
type Delta struct {
	TotalForecast      decimal.Decimal `json:"total_forecast"`
	TotalActual        decimal.Decimal `json:"total_actual"`
	EstimatedFinalCost decimal.Decimal `json:"estimated_final_cost"`
	Variance           decimal.Decimal `json:"variance"`
	CompletedItems     int             `json:"completed_items"`
	TotalItems         int             `json:"total_items"`
	StatusChanged      bool            `json:"status_changed"`
	TrackChanged       bool            `json:"track_changed"`
}

func (d Delta) isZero() bool {
	return d.TotalForecast.IsZero() &&
		d.TotalActual.IsZero() &&
		d.EstimatedFinalCost.IsZero() &&
		d.Variance.IsZero() &&
		d.CompletedItems == 0 &&
		d.TotalItems == 0 &&
		!d.StatusChanged &&
		!d.TrackChanged
}

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventBudgetDelta = "budget_delta"
	EventOverBudget  = "over_budget"
)

// Event is emitted whenever the budget snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	ProjectID       int64     `json:"project_id"`
	ActualsSource   string    `json:"actuals_source"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the watch runtime and HTTP API.
type Service struct {
	cfg  Config
	load LoadFunc
	log  *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a watch service for the configured project.
func New(cfg Config, load LoadFunc, log *slog.Logger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Source == "" {
		cfg.Source = model.ActualsFromItems
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		cfg:       cfg,
		load:      load,
		log:       log,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Router builds the HTTP handlers.
func (s *Service) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.handleHealth)
	r.GET("/v1/status", s.handleStatus)
	r.GET("/v1/events", s.handleEvents)
	r.GET("/v1/stream", s.handleStream)
	return r
}

// Run serves HTTP and polls until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("watch server listening", "addr", s.cfg.Addr, "project_id", s.cfg.ProjectID)

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("watch http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	b, err := s.load(ctx)
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warn("watch poll failed", "project_id", s.cfg.ProjectID, "err", err)
		return
	}

	snap := snapshotFromSummary(b.Project, pipeline.Summarize(b.Project, b.Items, b.Expenses, s.cfg.Source), now)

	var events []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	newEvent := func(typ string, d Delta) Event {
		s.nextEventID++
		return Event{ID: s.nextEventID, Type: typ, Timestamp: now, Snapshot: snap, Delta: d}
	}
	if !prevExists {
		events = append(events, newEvent(EventSnapshot, Delta{}))
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		events = append(events, newEvent(EventBudgetDelta, delta))
		if prev.OnTrack && !snap.OnTrack {
			events = append(events, newEvent(EventOverBudget, delta))
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.publishEvent(ev)
	}
	if len(events) > 0 {
		s.log.Debug("budget changed", "project_id", snap.ProjectID, "variance", snap.Variance.String())
	}
}

func snapshotFromSummary(p model.Project, sum model.BudgetSummary, at time.Time) Snapshot {
	return Snapshot{
		At:                 at,
		ProjectID:          p.ID,
		Name:               p.Name,
		TotalBudget:        sum.TotalBudget,
		TotalForecast:      sum.TotalForecast,
		TotalActual:        sum.TotalActual,
		EstimatedFinalCost: sum.EstimatedFinalCost,
		Variance:           sum.Variance,
		Remaining:          sum.Remaining,
		ProgressPercent:    sum.ProgressPercent,
		CompletedItems:     sum.CompletedItems,
		TotalItems:         sum.TotalItems,
		Status:             sum.Status,
		OnTrack:            sum.OnTrack(),
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		TotalForecast:      curr.TotalForecast.Sub(prev.TotalForecast),
		TotalActual:        curr.TotalActual.Sub(prev.TotalActual),
		EstimatedFinalCost: curr.EstimatedFinalCost.Sub(prev.EstimatedFinalCost),
		Variance:           curr.Variance.Sub(prev.Variance),
		CompletedItems:     curr.CompletedItems - prev.CompletedItems,
		TotalItems:         curr.TotalItems - prev.TotalItems,
		StatusChanged:      curr.Status != prev.Status,
		TrackChanged:       curr.OnTrack != prev.OnTrack,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		ProjectID:       s.cfg.ProjectID,
		ActualsSource:   string(s.cfg.Source),
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

func (s *Service) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(c *gin.Context) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, events)
}

func (s *Service) handleStream(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	c.SSEvent(EventSnapshot, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-ch:
			c.SSEvent(ev.Type, ev)
			return true
		}
	})
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
