package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/internal/session"
	"github.com/spatialhue/lightcontrol/internal/util"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// Anchors is the part of the anchor store the monitor reports on.
type Anchors interface {
	Records() []core.LightControlRecord
	Marker(id uuid.UUID) (*scene.Node, bool)
	MarkerCount() int
	OrphanCount() int
}

// Queue reports how many commands are waiting to be sent.
type Queue interface {
	QueueLen() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Anchors  Anchors
	Session  *session.Context
	Commands Queue
	Logger   *slog.Logger
	// StatusFile, when set, is rewritten with every snapshot.
	StatusFile string
	Interval   time.Duration
}

// RecordStatus is one line of the record listing.
type RecordStatus struct {
	AnchorID string `json:"anchorId"`
	Target   string `json:"target"`
	Power    string `json:"power"`
	Color    string `json:"color"`
	Live     bool   `json:"live"`
}

// Status is a point-in-time snapshot of the control core.
type Status struct {
	Time     time.Time      `json:"time"`
	Mode     string         `json:"mode"`
	Editing  bool           `json:"editing"`
	Selected string         `json:"selected,omitempty"`
	Markers  int            `json:"markers"`
	Orphans  int            `json:"orphans"`
	Queued   int            `json:"queued"`
	Records  []RecordStatus `json:"records"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = 30 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status
func (s *Service) GetStatus() Status {
	st := Status{
		Time:    time.Now(),
		Markers: s.deps.Anchors.MarkerCount(),
		Orphans: s.deps.Anchors.OrphanCount(),
		Records: []RecordStatus{},
	}
	if s.deps.Session != nil {
		st.Mode = s.deps.Session.Mode().String()
		st.Editing = s.deps.Session.Editing()
		if id, ok := s.deps.Session.Selected(); ok {
			st.Selected = id.String()
		}
	}
	if s.deps.Commands != nil {
		st.Queued = s.deps.Commands.QueueLen()
	}

	for _, rec := range s.deps.Anchors.Records() {
		st.Records = append(st.Records, RecordStatus{
			AnchorID: rec.AnchorID.String(),
			Target:   util.FormatTarget(rec.Kind, rec.TargetName),
			Power:    util.FormatPower(rec.IsOn),
			Color:    util.FormatColor(rec.LastColor),
			Live:     s.live(rec.AnchorID),
		})
	}
	return st
}

func (s *Service) live(id uuid.UUID) bool {
	_, ok := s.deps.Anchors.Marker(id)
	return ok
}

// Snapshot logs the current status and rewrites the status file.
func (s *Service) Snapshot() (Status, error) {
	st := s.GetStatus()
	s.deps.Logger.Info("Status",
		"mode", st.Mode,
		"records", len(st.Records),
		"markers", st.Markers,
		"orphans", st.Orphans,
		"queued", st.Queued)

	if s.deps.StatusFile == "" {
		return st, nil
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return st, fmt.Errorf("error encoding status: %w", err)
	}
	tmp := s.deps.StatusFile + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return st, fmt.Errorf("error writing status file: %w", err)
	}
	if err := os.Rename(tmp, s.deps.StatusFile); err != nil {
		return st, fmt.Errorf("error replacing status file: %w", err)
	}
	return st, nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := s.Snapshot(); err != nil {
					logger.Error("Error writing status", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
