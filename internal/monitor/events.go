package monitor

import "time"

// Request asks for a monitor's brightness to be changed.
type Request struct {
	ID    string
	Index int
	Value uint8
}

// Completion reports the outcome of a Request. Exactly one Completion is
// delivered per dispatched Request.
type Completion struct {
	Request
	// Raw is the value sent to the display, zero if nothing was sent.
	Raw      uint16
	Err      error
	Duration time.Duration
}

func (c Completion) OK() bool {
	return c.Err == nil
}
