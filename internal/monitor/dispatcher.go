package monitor

import (
	"sync"
	"time"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
)

type job struct {
	req      Request
	monitors []Monitor
}

// lane runs the jobs of one monitor, one at a time, in dispatch order. It
// lives only while it has work.
type lane struct {
	index   int
	queue   []job
	running bool
}

// Dispatcher runs writes off the caller's goroutine. Writes to the same
// monitor are serialized in dispatch order; writes to different monitors run
// concurrently. Every dispatched request produces exactly one Completion.
type Dispatcher struct {
	writer  *Writer
	deliver func(Completion)

	mu     sync.Mutex
	lanes  map[int]*lane
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher that passes every completion to deliver.
// deliver is called from worker goroutines.
func NewDispatcher(writer *Writer, deliver func(Completion)) *Dispatcher {
	return &Dispatcher{
		writer:  writer,
		deliver: deliver,
		lanes:   make(map[int]*lane),
	}
}

// Dispatch queues req against the given registry snapshot. It never blocks.
func (d *Dispatcher) Dispatch(req Request, monitors []Monitor) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		c := Completion{
			Request: req,
			Err:     errors.New().WithMessage(ErrDispatchFailed, "dispatcher is closed"),
		}
		go d.deliver(c)
		return
	}

	if req.Index < 0 || req.Index >= len(monitors) {
		c := Completion{
			Request: req,
			Err:     errors.New().WithData(ErrNotFound, req.Index),
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(c)
		}()
		return
	}

	l, ok := d.lanes[req.Index]
	if !ok {
		l = &lane{index: req.Index}
		d.lanes[req.Index] = l
	}
	l.queue = append(l.queue, job{req: req, monitors: monitors})

	if !l.running {
		l.running = true
		d.wg.Add(1)
		go d.drain(l)
	}
}

func (d *Dispatcher) drain(l *lane) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		if len(l.queue) == 0 {
			l.running = false
			delete(d.lanes, l.index)
			d.mu.Unlock()
			return
		}
		j := l.queue[0]
		l.queue = l.queue[1:]
		d.mu.Unlock()

		d.deliver(d.run(j))
	}
}

func (d *Dispatcher) run(j job) (c Completion) {
	start := time.Now()
	c.Request = j.req

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Int("monitor", j.req.Index).
				Str("request_id", j.req.ID).
				Msg("Brightness write panicked")
			c.Err = errors.New().WithData(ErrDispatchFailed, r)
		}
		c.Duration = time.Since(start)
	}()

	c.Raw, c.Err = d.writer.Write(j.monitors, j.req.Index, j.req.Value)

	return c
}

// activeLanes returns the number of monitors with queued or running writes.
func (d *Dispatcher) activeLanes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lanes)
}

// Close stops accepting requests and waits for queued ones to complete.
// Requests dispatched afterwards complete with ErrDispatchFailed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
}
