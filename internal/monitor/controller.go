package monitor

import (
	"context"
	"sync"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
	"github.com/google/uuid"
)

// Controller owns the registry's brightness values. Requests apply an
// optimistic local update on the Controller's goroutine and are then written
// by the Dispatcher; completions come back through the same goroutine before
// being handed to subscribers.
type Controller struct {
	registry        *Registry
	dispatcher      *Dispatcher
	revertOnFailure bool

	requests    chan Request
	completions chan Completion
	queries     chan chan []Monitor
	stopped     chan struct{}
	stopOnce    sync.Once

	subMu       sync.Mutex
	subscribers []func(Completion)

	// confirmed holds the last value each display accepted.
	confirmed []uint8
	pending   []int
}

type ControllerOption func(*Controller)

// WithRevertOnFailure restores the last confirmed brightness when a write
// fails and no newer write for that monitor is pending.
func WithRevertOnFailure(revert bool) ControllerOption {
	return func(c *Controller) {
		c.revertOnFailure = revert
	}
}

func NewController(registry *Registry, writer *Writer, opts ...ControllerOption) *Controller {
	c := &Controller{
		registry:    registry,
		requests:    make(chan Request),
		completions: make(chan Completion),
		queries:     make(chan chan []Monitor),
		stopped:     make(chan struct{}),
		confirmed:   make([]uint8, registry.Len()),
		pending:     make([]int, registry.Len()),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i, m := range registry.Snapshot() {
		c.confirmed[i] = m.Brightness
	}

	c.dispatcher = NewDispatcher(writer, func(comp Completion) {
		c.completions <- comp
	})

	return c
}

// Subscribe registers fn to receive every completion. fn runs on the
// Controller's goroutine and must not block.
func (c *Controller) Subscribe(fn func(Completion)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Request asks for monitor index to be set to value percent, clamped to 100.
// It returns the request ID that the matching Completion carries.
func (c *Controller) Request(ctx context.Context, index int, value uint8) (string, error) {
	errFactory := errors.New()

	if value > 100 {
		value = 100
	}
	req := Request{ID: uuid.NewString(), Index: index, Value: value}

	select {
	case c.requests <- req:
		return req.ID, nil
	case <-c.stopped:
		return "", errFactory.WithMessage(ErrDispatchFailed, "controller is stopped")
	case <-ctx.Done():
		return "", errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	}
}

// Snapshot returns the monitors as currently displayed.
func (c *Controller) Snapshot(ctx context.Context) ([]Monitor, error) {
	errFactory := errors.New()

	reply := make(chan []Monitor, 1)
	select {
	case c.queries <- reply:
	case <-c.stopped:
		return nil, errFactory.WithMessage(ErrDispatchFailed, "controller is stopped")
	case <-ctx.Done():
		return nil, errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	}

	select {
	case monitors := <-reply:
		return monitors, nil
	case <-ctx.Done():
		return nil, errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	}
}

// Run processes requests and completions until ctx is done. Writes already
// dispatched run to completion and are reported before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	logger.Debug().Int("monitors", c.registry.Len()).Msg("Controller started")

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case req := <-c.requests:
			c.handleRequest(req)
		case comp := <-c.completions:
			c.handleCompletion(comp)
		case reply := <-c.queries:
			reply <- c.registry.Snapshot()
		}
	}
}

func (c *Controller) shutdown() {
	c.stopOnce.Do(func() { close(c.stopped) })

	idle := make(chan struct{})
	go func() {
		c.dispatcher.Close()
		close(idle)
	}()

	for {
		select {
		case comp := <-c.completions:
			c.handleCompletion(comp)
		case <-idle:
			logger.Debug().Msg("Controller stopped")
			return
		}
	}
}

func (c *Controller) handleRequest(req Request) {
	if c.registry.setBrightness(req.Index, req.Value) {
		c.pending[req.Index]++
	}

	logger.Debug().
		Int("monitor", req.Index).
		Uint8("value", req.Value).
		Str("request_id", req.ID).
		Msg("Brightness change requested")

	c.dispatcher.Dispatch(req, c.registry.Snapshot())
}

func (c *Controller) handleCompletion(comp Completion) {
	if _, ok := c.registry.Get(comp.Index); ok {
		c.pending[comp.Index]--

		switch {
		case comp.OK():
			c.confirmed[comp.Index] = comp.Value
		case c.revertOnFailure && c.pending[comp.Index] == 0:
			c.registry.setBrightness(comp.Index, c.confirmed[comp.Index])
			logger.Info().
				Int("monitor", comp.Index).
				Uint8("value", c.confirmed[comp.Index]).
				Msg("Reverted brightness after failed write")
		}
	}

	if comp.OK() {
		logger.Info().
			Int("monitor", comp.Index).
			Uint8("value", comp.Value).
			Uint16("raw", comp.Raw).
			Dur("duration", comp.Duration).
			Str("request_id", comp.ID).
			Msg("Brightness set")
	} else {
		logger.Error().
			Err(comp.Err).
			Str("error_code", string(errors.CodeOf(comp.Err))).
			Int("monitor", comp.Index).
			Uint8("value", comp.Value).
			Str("request_id", comp.ID).
			Msg("Failed to set brightness")
	}

	c.subMu.Lock()
	subscribers := make([]func(Completion), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.subMu.Unlock()

	for _, fn := range subscribers {
		fn(comp)
	}
}
