package monitor

import "codeberg.org/mutker/ddcctl/internal/ddc"

// Monitor is one discovered display.
type Monitor struct {
	Index int
	Ref   ddc.DisplayRef
	Label string
	// Brightness is the displayed value in percent of Max.
	Brightness uint8
	// Max is the display's reported brightness maximum, zero when unknown.
	Max uint16
}

// Registry holds the monitors discovered at startup. Its length and
// references never change; only Brightness does, and only from the
// Controller's goroutine.
type Registry struct {
	monitors []Monitor
}

func NewRegistry(monitors []Monitor) *Registry {
	return &Registry{monitors: monitors}
}

func (r *Registry) Len() int {
	return len(r.monitors)
}

func (r *Registry) Get(index int) (Monitor, bool) {
	if index < 0 || index >= len(r.monitors) {
		return Monitor{}, false
	}
	return r.monitors[index], true
}

// Snapshot returns a copy of all monitors.
func (r *Registry) Snapshot() []Monitor {
	monitors := make([]Monitor, len(r.monitors))
	copy(monitors, r.monitors)
	return monitors
}

func (r *Registry) setBrightness(index int, value uint8) bool {
	if index < 0 || index >= len(r.monitors) {
		return false
	}
	r.monitors[index].Brightness = value
	return true
}
