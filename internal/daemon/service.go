// Package daemon serves a budget document's projection over HTTP and
// republishes it whenever the file changes on disk.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/document"
	"github.com/theirongolddev/allot/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config controls the daemon runtime behavior.
type Config struct {
	BudgetPath   string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// History, when set, receives a revision for every change seen on disk.
	History *store.History
}

// Snapshot is a compact budget state for status/event payloads.
type Snapshot struct {
	At                 time.Time       `json:"at"`
	Mode               string          `json:"mode"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ComputedGrandTotal decimal.Decimal `json:"computed_grand_total"`
	LockedAmount       decimal.Decimal `json:"locked_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	Categories         int             `json:"categories"`
	Fees               int             `json:"fees"`
	OverBudget         bool            `json:"over_budget"`
	Shortfall          decimal.Decimal `json:"shortfall"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	GrandTotal         decimal.Decimal `json:"grand_total"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ComputedGrandTotal decimal.Decimal `json:"computed_grand_total"`
	LockedAmount       decimal.Decimal `json:"locked_amount"`
	Categories         int             `json:"categories"`
	Fees               int             `json:"fees"`
	OverBudgetChanged  bool            `json:"over_budget_changed"`
}

func (d Delta) isZero() bool {
	return d.GrandTotal.IsZero() &&
		d.Subtotal.IsZero() &&
		d.ComputedGrandTotal.IsZero() &&
		d.LockedAmount.IsZero() &&
		d.Categories == 0 &&
		d.Fees == 0 &&
		!d.OverBudgetChanged
}

// Event is emitted whenever the budget snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Revision  int64     `json:"revision,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastChangeAt    time.Time `json:"last_change_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	BudgetPath      string    `json:"budget_path"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API. All engine access goes
// through mu.
type Service struct {
	cfg Config

	mu           sync.RWMutex
	engine       *budget.Engine
	file         store.FileInfo
	startedAt    time.Time
	lastPollAt   time.Time
	lastChangeAt time.Time
	pollCount    int64
	lastError    string
	hasSnapshot  bool
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = 5 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	return &Service{
		cfg:       cfg,
		engine:    budget.New(decimal.Zero),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/projection", s.handleProjection)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Str("addr", s.cfg.Addr).Str("budget", s.cfg.BudgetPath).Msg("serving budget")

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) fail(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = time.Now()
	s.pollCount++
	s.mu.Unlock()
	log.Error().Err(err).Str("budget", s.cfg.BudgetPath).Msg("poll failed")
}

// pollOnce reloads the document when its size or mtime moved.
func (s *Service) pollOnce() {
	info, err := os.Stat(s.cfg.BudgetPath)
	if err != nil {
		s.fail(err)
		return
	}
	fi := store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}

	s.mu.RLock()
	unchanged := s.hasSnapshot && fi == s.file
	s.mu.RUnlock()
	if unchanged {
		s.mu.Lock()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.lastError = ""
		s.mu.Unlock()
		return
	}

	data, err := os.ReadFile(s.cfg.BudgetPath)
	if err != nil {
		s.fail(err)
		return
	}
	doc, err := document.Unmarshal(data)
	if err != nil {
		s.fail(err)
		return
	}
	e := budget.New(decimal.Zero)
	if err := e.Load(doc); err != nil {
		s.fail(err)
		return
	}

	revision := s.recordRevision(e, data, fi)

	now := time.Now()
	snap := snapshotFromEngine(e, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.engine = e
	s.file = fi
	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.lastChangeAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
			Revision:  revision,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "budget_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
				Revision:  revision,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		log.Debug().Int64("event", ev.ID).Str("type", ev.Type).Msg("budget changed")
		s.publishEvent(ev)
	}
}

func (s *Service) recordRevision(e *budget.Engine, data []byte, fi store.FileInfo) int64 {
	h := s.cfg.History
	if h == nil {
		return 0
	}
	rev, _, err := h.Record(store.RevisionOf(s.cfg.BudgetPath, e, data, "changed on disk"))
	if err != nil {
		log.Warn().Err(err).Msg("recording revision")
		return 0
	}
	if err := h.TrackFile(s.cfg.BudgetPath, fi); err != nil {
		log.Warn().Err(err).Msg("tracking budget file")
	}
	return rev.ID
}

func snapshotFromEngine(e *budget.Engine, at time.Time) Snapshot {
	sum := e.Summary()
	return Snapshot{
		At:                 at,
		Mode:               e.Mode().String(),
		GrandTotal:         e.GrandTotal(),
		Subtotal:           e.Subtotal(),
		ComputedGrandTotal: e.ComputedGrandTotal(),
		LockedAmount:       sum.LockedAmount,
		RemainingAmount:    sum.RemainingAmount,
		Categories:         len(e.Categories()),
		Fees:               len(e.Fees()),
		OverBudget:         e.OverBudget(),
		Shortfall:          sum.Shortfall,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		GrandTotal:         curr.GrandTotal.Sub(prev.GrandTotal),
		Subtotal:           curr.Subtotal.Sub(prev.Subtotal),
		ComputedGrandTotal: curr.ComputedGrandTotal.Sub(prev.ComputedGrandTotal),
		LockedAmount:       curr.LockedAmount.Sub(prev.LockedAmount),
		Categories:         curr.Categories - prev.Categories,
		Fees:               curr.Fees - prev.Fees,
		OverBudgetChanged:  curr.OverBudget != prev.OverBudget,
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
		LastChangeAt:    s.lastChangeAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		BudgetPath:      s.cfg.BudgetPath,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleProjection(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	p := s.engine.Projection()
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
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
