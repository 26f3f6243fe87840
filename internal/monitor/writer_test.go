package monitor_test

import (
	"testing"

	"codeberg.org/mutker/ddcctl/internal/ddc"
	"codeberg.org/mutker/ddcctl/internal/ddc/ddctest"
	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discover(t *testing.T, lib *ddctest.Library) []monitor.Monitor {
	t.Helper()

	monitors := monitor.Discover(lib, monitor.NewReader(lib)).Snapshot()
	require.Len(t, monitors, len(lib.Displays))

	return monitors
}

func writeCalls(lib *ddctest.Library, discovered int) []ddctest.Call {
	// Discovery issues init, refs and open/get/close per display.
	return lib.Calls()[2+3*discovered:]
}

func TestWriteUnknownMonitor(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100), ddctest.Brightness(10, 100))
	monitors := discover(t, lib)

	_, err := monitor.NewWriter(lib, false).Write(monitors, 2, 80)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, monitor.ErrNotFound))
	assert.Empty(t, writeCalls(lib, 2), "no native call for an unknown monitor")
}

func TestWriteSuccess(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	monitors := discover(t, lib)

	raw, err := monitor.NewWriter(lib, false).Write(monitors, 0, 80)

	require.NoError(t, err)
	assert.Equal(t, uint16(80), raw)
	assert.Equal(t, []ddctest.Call{
		{Op: ddctest.OpOpen, Display: 0},
		{Op: ddctest.OpSet, Display: 0, Code: ddc.FeatureBrightness, High: 0, Low: 80},
		{Op: ddctest.OpClose, Display: 0},
	}, writeCalls(lib, 1))
}

func TestWriteScalesToMaximum(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(100, 1000))
	monitors := discover(t, lib)

	raw, err := monitor.NewWriter(lib, false).Write(monitors, 0, 50)

	require.NoError(t, err)
	assert.Equal(t, uint16(500), raw)
	assert.Equal(t, uint16(500), lib.Displays[0].Value.Current())
}

func TestWriteOpenFailure(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	monitors := discover(t, lib)
	lib.Displays[0].OpenStatus = -3020

	_, err := monitor.NewWriter(lib, false).Write(monitors, 0, 80)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, monitor.ErrOpenFailed))
	status, ok := ddc.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ddc.Status(-3020), status)
	assert.Equal(t, []ddctest.Call{{Op: ddctest.OpOpen, Display: 0}}, writeCalls(lib, 1),
		"a failed open must not be followed by set or close")
}

func TestWriteSetFailureClosesHandle(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	monitors := discover(t, lib)
	lib.Displays[0].SetStatus = -3001

	_, err := monitor.NewWriter(lib, false).Write(monitors, 0, 80)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, monitor.ErrSetFailed))
	assert.True(t, errors.HasCode(err, ddc.ErrSetVcpFailed))
	status, ok := ddc.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ddc.Status(-3001), status)
	assert.Equal(t, []ddctest.Op{ddctest.OpOpen, ddctest.OpSet, ddctest.OpClose}, opsOf(writeCalls(lib, 1)))
	assert.Zero(t, lib.OpenHandles())
}

func TestWriteCloseFailureStillSucceeds(t *testing.T) {
	lib := ddctest.New(ddctest.Brightness(10, 100))
	monitors := discover(t, lib)
	lib.Displays[0].CloseStatus = -1

	_, err := monitor.NewWriter(lib, false).Write(monitors, 0, 80)

	require.NoError(t, err)
	assert.Equal(t, []ddctest.Op{ddctest.OpOpen, ddctest.OpSet, ddctest.OpClose}, opsOf(writeCalls(lib, 1)))
}

func opsOf(calls []ddctest.Call) []ddctest.Op {
	ops := make([]ddctest.Op, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}
