package monitor

import (
	"codeberg.org/mutker/ddcctl/internal/ddc"
	"codeberg.org/mutker/ddcctl/internal/errors"
)

// Writer sets the brightness of a monitor. It blocks on the display bus and
// must not run on the Controller's goroutine.
type Writer struct {
	lib  ddc.Library
	wait bool
}

func NewWriter(lib ddc.Library, wait bool) *Writer {
	return &Writer{lib: lib, wait: wait}
}

// Write sets monitor index of monitors to percent and returns the raw value
// sent to the display. A close failure after a successful set is logged and
// does not fail the write.
func (w *Writer) Write(monitors []Monitor, index int, percent uint8) (uint16, error) {
	errFactory := errors.New()

	if index < 0 || index >= len(monitors) {
		return 0, errFactory.WithData(ErrNotFound, index)
	}
	m := monitors[index]

	raw := ddc.FromPercent(percent, m.Max)
	high, low := ddc.Encode(raw)

	var set bool
	err := ddc.WithHandle(w.lib, m.Ref, w.wait, func(h ddc.DisplayHandle) error {
		set = true
		return w.lib.SetNonTableValue(h, ddc.FeatureBrightness, high, low)
	})
	if err != nil {
		if set {
			return raw, errFactory.Wrap(ErrSetFailed, err)
		}
		return raw, errFactory.Wrap(ErrOpenFailed, err)
	}

	return raw, nil
}
