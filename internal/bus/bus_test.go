package bus

import (
	"context"
	"sync"
	"testing"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	monitors []monitor.Monitor
	err      error
	requests []monitor.Request
}

func (f *fakeController) Request(_ context.Context, index int, value uint8) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, monitor.Request{Index: index, Value: value})
	return "req-1", nil
}

func (f *fakeController) Snapshot(context.Context) ([]monitor.Monitor, error) {
	return f.monitors, f.err
}

func (*fakeController) Subscribe(func(monitor.Completion)) {}

type signal struct {
	path dbus.ObjectPath
	name string
	body []interface{}
}

type fakeEmitter struct {
	mu      sync.Mutex
	signals []signal
}

func (f *fakeEmitter) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, signal{path: path, name: name, body: values})
	return nil
}

func TestListMonitors(t *testing.T) {
	ctrl := &fakeController{monitors: []monitor.Monitor{
		{Index: 0, Label: "DELL U2720Q", Brightness: 40, Max: 100},
		{Index: 1, Label: "LG 27GL850", Brightness: 75, Max: 100},
	}}
	obj := &object{ctrl: ctrl}

	infos, dbusErr := obj.ListMonitors()

	require.Nil(t, dbusErr)
	assert.Equal(t, []MonitorInfo{
		{Index: 0, Label: "DELL U2720Q", Brightness: 40, Max: 100},
		{Index: 1, Label: "LG 27GL850", Brightness: 75, Max: 100},
	}, infos)
}

func TestSetBrightness(t *testing.T) {
	ctrl := &fakeController{}
	obj := &object{ctrl: ctrl}

	id, dbusErr := obj.SetBrightness(1, 65)

	require.Nil(t, dbusErr)
	assert.Equal(t, "req-1", id)
	assert.Equal(t, []monitor.Request{{Index: 1, Value: 65}}, ctrl.requests)
}

func TestSetBrightnessStopped(t *testing.T) {
	ctrl := &fakeController{err: errors.New().New(monitor.ErrDispatchFailed)}
	obj := &object{ctrl: ctrl}

	_, dbusErr := obj.SetBrightness(0, 10)

	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", dbusErr.Name)
}

func TestNotifyEmitsSignal(t *testing.T) {
	em := &fakeEmitter{}
	s := &Service{emit: em}

	s.notify(monitor.Completion{Request: monitor.Request{ID: "a", Index: 2, Value: 30}})
	s.notify(monitor.Completion{
		Request: monitor.Request{ID: "b", Index: 2, Value: 70},
		Err:     errors.New().New(monitor.ErrSetFailed),
	})

	require.Len(t, em.signals, 2)
	assert.Equal(t, ObjectPath, em.signals[0].path)
	assert.Equal(t, signalWriteCompleted, em.signals[0].name)
	assert.Equal(t, []interface{}{uint32(2), "a", uint8(30), true, ""}, em.signals[0].body)

	body := em.signals[1].body
	assert.Equal(t, "b", body[1])
	assert.Equal(t, false, body[3])
	assert.Equal(t, "monitor_set_failed", body[4])
}
