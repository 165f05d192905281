package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spatialhue/lightcontrol/internal/anchors"
	"github.com/spatialhue/lightcontrol/internal/cache"
	"github.com/spatialhue/lightcontrol/internal/config"
	"github.com/spatialhue/lightcontrol/internal/dispatcher"
	"github.com/spatialhue/lightcontrol/internal/hue"
	"github.com/spatialhue/lightcontrol/internal/logging"
	lcotel "github.com/spatialhue/lightcontrol/internal/otel"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/internal/session"
	"github.com/spatialhue/lightcontrol/internal/storage"
	"github.com/spatialhue/lightcontrol/internal/worker"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

const appName = "lightcontrol"

// app is the runtime shared by the commands: logging, metrics and whatever
// collaborators a command opens. close releases them in reverse order.
type app struct {
	start time.Time
	sess  *session.Context
	log   *slog.Logger
	zlog  zerolog.Logger

	metrics *lcotel.Provider
	closers []func()
}

func newApp() (*app, error) {
	if err := requireConfig(); err != nil {
		return nil, err
	}
	a := &app{
		start: time.Now(),
		sess:  session.NewContext(),
	}
	if err := a.setupLogging(); err != nil {
		a.close()
		return nil, err
	}
	if err := a.setupMetrics(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// setupLogging opens the session log file under logsDir. An existing file of
// the same name is kept as .old. Without logsDir everything goes to stdout.
func (a *app) setupLogging() error {
	level := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")

	var file io.Writer
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		path := logging.LogFilePath(logsDir, appName, a.start)
		if _, err := os.Stat(path); err == nil {
			_ = os.Rename(path, path+".old")
		}
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		a.onClose(func() { _ = f.Close() })
	}

	mgr := logging.NewSlogManager()
	mgr.Setup(file, level, a.sess.Attrs)
	a.log = mgr.Logger()

	zl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || zl == zerolog.NoLevel {
		zl = zerolog.InfoLevel
	}
	zw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339, NoColor: true}
	if file != nil {
		zw.Out = file
	}
	a.zlog = zerolog.New(zw).Level(zl).With().Timestamp().Logger()
	return nil
}

func (a *app) setupMetrics() error {
	mc := config.GetMetricsConfig()
	cfg := lcotel.Config{
		Enabled:     mc.Enabled,
		ServiceName: mc.ServiceName,
		Interval:    mc.Interval,
	}
	if mc.Enabled {
		cfg.Writer = os.Stderr
		if mc.File != "" {
			f, err := os.OpenFile(mc.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open metrics file: %w", err)
			}
			a.onClose(func() { _ = f.Close() })
			cfg.Writer = f
		}
	}

	p, err := lcotel.New(cfg)
	if err != nil {
		return err
	}
	a.metrics = p
	a.onClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Shutdown(ctx); err != nil {
			a.log.Warn("Metric shutdown failed", "error", err)
		}
	})
	if p.Enabled() {
		a.log.Info("OTel metrics enabled", "service", mc.ServiceName, "interval", mc.Interval)
	}
	return nil
}

// openBackend creates and initializes the configured storage backend.
func (a *app) openBackend() (storage.Backend, error) {
	cfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(cfg, a.zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	a.onClose(func() {
		if err := backend.Close(); err != nil {
			a.log.Error("Failed to close storage backend", "error", err)
		}
	})
	a.log.Info("Storage backend initialized", "type", cfg.Type)
	return backend, nil
}

func (a *app) hueClient() *hue.Client {
	return hue.New(config.GetHueConfig(), cache.NewNameCache())
}

// commander starts the command dispatcher with the light and group workers
// registered on it. Queued commands finish before close returns.
func (a *app) commander(lights worker.LightController) (*worker.Manager, *dispatcher.Dispatcher, error) {
	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zlog))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	a.onClose(d.Close)

	dc := config.GetDispatcherConfig()
	w := worker.NewManager(worker.Dependencies{
		Lights:         lights,
		CommandTimeout: dc.CommandTimeout,
		BufferSize:     dc.BufferSize,
	})
	w.RegisterHandlers(d)
	a.log.Debug("Worker handlers registered with dispatcher")
	return w, d, nil
}

func (a *app) store(sc *scene.Scene, backend storage.Backend, tracker anchors.Tracker, device anchors.Device, cmd anchors.Commander) (*anchors.Store, error) {
	ac := config.GetAnchorConfig()
	s, err := anchors.New(anchors.Config{
		MoveSettleDelay: ac.MoveSettleDelay,
		PlaceDistance:   ac.PlaceDistance,
		MarkerRadius:    ac.MarkerRadius,
		EditOpacity:     ac.EditOpacity,
		IdleOpacity:     ac.IdleOpacity,
	}, anchors.Dependencies{
		Scene:     sc,
		Backend:   backend,
		Tracker:   tracker,
		Device:    device,
		Commander: cmd,
		Session:   a.sess,
		Logger:    a.log,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// dryRunLights logs light and group commands instead of sending them.
type dryRunLights struct {
	log *slog.Logger
}

func (d dryRunLights) ControlLight(_ context.Context, name string, state core.LightState) error {
	d.log.Info("Dry run light command", "light", name, "state", formatState(state))
	return nil
}

func (d dryRunLights) ControlGroup(_ context.Context, name string, state core.LightState) error {
	d.log.Info("Dry run group command", "group", name, "state", formatState(state))
	return nil
}

func formatState(s core.LightState) string {
	data, err := json.Marshal(s)
	if err != nil {
		return "?"
	}
	return string(data)
}

// offlineTracker accepts anchor changes without a headset. Records placed
// offline stay orphaned until the tracking provider registers their anchor.
type offlineTracker struct{}

func (offlineTracker) AddAnchor(context.Context, core.Anchor) error { return nil }

func (offlineTracker) RemoveAnchor(context.Context, uuid.UUID) error { return nil }
