// Package dispatcher routes light and group commands to their handlers.
// A command registered with Buffered gets its own queue and goroutine, so the
// sender returns as soon as the command is queued.
package dispatcher

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spatialhue/lightcontrol/pkg/core"
)

var (
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("dispatcher closed")
	// ErrUnknownCommand is returned for a command with no registered handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrQueueFull is returned when a non-blocking queue has no room left.
	ErrQueueFull = errors.New("command queue full")
)

// Event is one command for a light or group on the bridge.
// Done, when set, receives the handler's error once the command has run.
type Event struct {
	Command   string
	Target    string
	State     core.LightState
	Done      func(error)
	Timestamp time.Time
}

// HandlerFunc runs a command.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*route)

// Buffered runs the handler on its own goroutine behind a queue of the given size.
func Buffered(size int) Option {
	return func(r *route) {
		r.size = size
	}
}

// Blocking makes Dispatch wait for room in a full queue instead of failing.
func Blocking() Option {
	return func(r *route) {
		r.blocking = true
	}
}

// Logged logs every command and its outcome.
func Logged() Option {
	return func(r *route) {
		r.logged = true
	}
}

type route struct {
	handle   HandlerFunc
	queue    chan Event
	size     int
	blocking bool
	logged   bool
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	logger  Logger
	metrics *instruments

	mu     sync.RWMutex
	routes map[string]*route
	closed bool
	wg     sync.WaitGroup
}

// New creates a Dispatcher. Metrics go to the global OTel meter provider,
// which is a no-op until one is installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		logger: logger,
		routes: make(map[string]*route),
	}
	ins, err := newInstruments(d.eachQueue)
	if err != nil {
		return nil, err
	}
	d.metrics = ins
	return d, nil
}

// Register adds a handler for the given command. Registering the same
// command twice replaces the handler for new events.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	r := &route{handle: h}
	for _, opt := range opts {
		opt(r)
	}
	if r.logged {
		r.handle = d.withLogging(command, r.handle)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if r.size > 0 && !d.closed {
		r.queue = make(chan Event, r.size)
		d.wg.Add(1)
		go d.drain(command, r)
	}
	d.routes[command] = r
}

// Dispatch runs the command's handler, or queues the event when the handler
// is buffered. A queued event reports its outcome through Event.Done only.
func (d *Dispatcher) Dispatch(e Event) error {
	d.mu.RLock()
	r, ok := d.routes[e.Command]
	if !ok {
		d.mu.RUnlock()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if r.queue == nil {
		d.mu.RUnlock()
		return d.run(e.Command, r, e)
	}

	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	if r.blocking {
		r.queue <- e
		return nil
	}
	select {
	case r.queue <- e:
		return nil
	default:
		d.metrics.dropped(e.Command)
		return fmt.Errorf("%w: %s", ErrQueueFull, e.Command)
	}
}

// HasHandler reports whether a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.routes[command]
	return ok
}

// QueueLen returns the number of events waiting in all queues.
func (d *Dispatcher) QueueLen() int {
	n := 0
	d.eachQueue(func(_ string, queued int) {
		n += queued
	})
	return n
}

// Close stops accepting queued events and waits for the ones already queued
// to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, r := range d.routes {
		if r.queue != nil {
			close(r.queue)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) eachQueue(fn func(command string, queued int)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for command, r := range d.routes {
		if r.queue != nil {
			fn(command, len(r.queue))
		}
	}
}

func (d *Dispatcher) drain(command string, r *route) {
	defer d.wg.Done()
	for e := range r.queue {
		_ = d.run(command, r, e)
	}
}

func (d *Dispatcher) run(command string, r *route, e Event) error {
	err := r.handle(e)
	if e.Done != nil {
		e.Done(err)
	}
	d.metrics.processed(command)
	return err
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		d.logger.Debug("sending command", "command", command, "target", e.Target)

		err := h(e)
		if err != nil {
			d.logger.Error("command failed", "command", command, "target", e.Target, "duration", time.Since(start), "error", err)
			return err
		}
		d.logger.Debug("command sent", "command", command, "target", e.Target, "duration", time.Since(start))
		return nil
	}
}
