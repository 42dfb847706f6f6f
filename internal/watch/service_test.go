package watch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func bundle(actual int64, status string) model.ProjectBundle {
	return model.ProjectBundle{
		Project: model.Project{ID: 5, Name: "Cabin", TotalBudget: decimal.NewNullDecimal(decimal.NewFromInt(12000))},
		Items: []model.ForecastItem{
			{ID: 1, ProjectID: 5, EstimatedCost: decimal.NewFromInt(10000), ActualCost: decimal.NewFromInt(actual), Status: status},
			{ID: 2, ProjectID: 5, EstimatedCost: decimal.NewFromInt(1000), Status: "not_started"},
		},
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{TotalActual: decimal.NewFromInt(100), Variance: decimal.NewFromInt(50), Status: model.StatusNotStarted, OnTrack: true}
	curr := Snapshot{TotalActual: decimal.NewFromInt(160), Variance: decimal.NewFromInt(-10), Status: model.StatusInProgress, CompletedItems: 1}

	d := diffSnapshots(prev, curr)
	if !d.TotalActual.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("TotalActual delta = %s, want 60", d.TotalActual)
	}
	if !d.Variance.Equal(decimal.NewFromInt(-60)) {
		t.Fatalf("Variance delta = %s, want -60", d.Variance)
	}
	if !d.StatusChanged || !d.TrackChanged || d.CompletedItems != 1 {
		t.Fatalf("delta = %+v", d)
	}
	if d.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 2}, nil, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events = [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnceEmitsEvents(t *testing.T) {
	current := bundle(0, "not_started")
	var loadErr error
	s := New(Config{ProjectID: 5}, func(context.Context) (model.ProjectBundle, error) {
		return current, loadErr
	}, nil)

	ctx := context.Background()
	s.pollOnce(ctx)
	s.pollOnce(ctx) // unchanged: no event

	// Item 1 completes over its estimate: EFC 12500 > budget 12000.
	current = bundle(11500, "completed")
	s.pollOnce(ctx)

	s.mu.RLock()
	types := make([]string, len(s.events))
	for i, ev := range s.events {
		types[i] = ev.Type
	}
	s.mu.RUnlock()

	want := []string{EventSnapshot, EventBudgetDelta, EventOverBudget}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event types = %v, want %v", types, want)
	}

	loadErr = errors.New("api down")
	s.pollOnce(ctx)
	st := s.snapshotStatus()
	if st.LastError != "api down" || st.PollCount != 4 {
		t.Fatalf("status = %+v", st)
	}
	if st.Summary.OnTrack {
		t.Fatal("summary lost after failed poll")
	}
}

func TestRouterStatusAndEvents(t *testing.T) {
	s := New(Config{ProjectID: 5}, func(context.Context) (model.ProjectBundle, error) {
		return bundle(0, "in_progress"), nil
	}, nil)
	s.pollOnce(context.Background())
	r := s.Router()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	var st struct {
		ProjectID int64 `json:"project_id"`
		Summary   struct {
			EstimatedFinalCost json.Number `json:"estimated_final_cost"`
			OnTrack            bool        `json:"on_track"`
		} `json:"summary"`
	}
	dec := json.NewDecoder(w.Body)
	dec.UseNumber()
	if err := dec.Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.ProjectID != 5 || st.Summary.EstimatedFinalCost.String() != "11000" || !st.Summary.OnTrack {
		t.Fatalf("status = %+v", st)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	var events []Event
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventSnapshot {
		t.Fatalf("events = %+v", events)
	}
}

func TestStreamSendsSnapshotFirst(t *testing.T) {
	s := New(Config{ProjectID: 5}, func(context.Context) (model.ProjectBundle, error) {
		return bundle(0, "in_progress"), nil
	}, nil)
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(line) != "event:snapshot" {
		t.Fatalf("first line = %q", line)
	}
}
