package monitor_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/ddcctl/internal/ddc/ddctest"
	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	lib         *ddctest.Library
	ctrl        *monitor.Controller
	completions chan monitor.Completion
	cancel      context.CancelFunc
	done        chan error
}

func startController(t *testing.T, lib *ddctest.Library, opts ...monitor.ControllerOption) *harness {
	t.Helper()

	registry := monitor.Discover(lib, monitor.NewReader(lib))
	ctrl := monitor.NewController(registry, monitor.NewWriter(lib, false), opts...)

	h := &harness{
		lib:         lib,
		ctrl:        ctrl,
		completions: make(chan monitor.Completion, 16),
		done:        make(chan error, 1),
	}
	ctrl.Subscribe(func(c monitor.Completion) {
		h.completions <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.done <- ctrl.Run(ctx)
	}()

	t.Cleanup(h.stop)

	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func (h *harness) next(t *testing.T) monitor.Completion {
	t.Helper()

	select {
	case c := <-h.completions:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for completion")
		return monitor.Completion{}
	}
}

func (h *harness) brightness(t *testing.T, index int) uint8 {
	t.Helper()

	monitors, err := h.ctrl.Snapshot(context.Background())
	require.NoError(t, err)

	return monitors[index].Brightness
}

func TestControllerSetBrightness(t *testing.T) {
	h := startController(t, ddctest.New(ddctest.Brightness(10, 100)))

	id, err := h.ctrl.Request(context.Background(), 0, 80)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	c := h.next(t)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, uint8(80), c.Value)
	assert.True(t, c.OK())
	assert.Equal(t, uint8(80), h.brightness(t, 0))
	assert.Equal(t, uint16(80), h.lib.Displays[0].Value.Current())
}

func TestControllerClampsValue(t *testing.T) {
	h := startController(t, ddctest.New(ddctest.Brightness(10, 100)))

	_, err := h.ctrl.Request(context.Background(), 0, 200)
	require.NoError(t, err)

	c := h.next(t)
	assert.Equal(t, uint8(100), c.Value)
	assert.Equal(t, uint16(100), c.Raw)
}

func TestControllerKeepsOptimisticValueOnFailure(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	lib.Displays[0].SetStatus = -3001
	h := startController(t, lib)

	_, err := h.ctrl.Request(context.Background(), 0, 80)
	require.NoError(t, err)

	c := h.next(t)
	assert.True(t, errors.HasCode(c.Err, monitor.ErrSetFailed))
	assert.Equal(t, uint8(80), h.brightness(t, 0))
}

func TestControllerRevertsOnFailure(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	lib.Displays[0].SetStatus = -3001
	h := startController(t, lib, monitor.WithRevertOnFailure(true))

	_, err := h.ctrl.Request(context.Background(), 0, 80)
	require.NoError(t, err)

	c := h.next(t)
	assert.False(t, c.OK())
	assert.Equal(t, uint8(10), h.brightness(t, 0))
}

func TestControllerUnknownMonitor(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	h := startController(t, lib)

	_, err := h.ctrl.Request(context.Background(), 2, 80)
	require.NoError(t, err)

	c := h.next(t)
	assert.Equal(t, 2, c.Index)
	assert.True(t, errors.HasCode(c.Err, monitor.ErrNotFound))
	assert.Empty(t, writeCalls(lib, 1))
}

func TestControllerTwoWritesSameMonitor(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	h := startController(t, lib)

	first, err := h.ctrl.Request(context.Background(), 0, 30)
	require.NoError(t, err)
	second, err := h.ctrl.Request(context.Background(), 0, 70)
	require.NoError(t, err)

	a, b := h.next(t), h.next(t)
	assert.Equal(t, first, a.ID)
	assert.Equal(t, second, b.ID)
	assert.Equal(t, uint8(70), h.brightness(t, 0))
	assert.Equal(t, uint16(70), lib.Displays[0].Value.Current())
	assert.Equal(t, 1, lib.MaxConcurrent(0))
}

func TestControllerShutdownDrainsWrites(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	release := make(chan struct{})
	lib.BeforeSet = func(int, uint8, uint8) { <-release }
	h := startController(t, lib)

	_, err := h.ctrl.Request(context.Background(), 0, 40)
	require.NoError(t, err)

	h.cancel()
	close(release)

	select {
	case err := <-h.done:
		require.NoError(t, err)
		h.done <- nil
	case <-time.After(waitTimeout):
		t.Fatal("controller did not stop")
	}

	c := h.next(t)
	assert.True(t, c.OK(), "dispatched writes run to completion")

	_, err = h.ctrl.Request(context.Background(), 0, 50)
	assert.True(t, errors.HasCode(err, monitor.ErrDispatchFailed))

	_, err = h.ctrl.Snapshot(context.Background())
	assert.True(t, errors.HasCode(err, monitor.ErrDispatchFailed))
}
