package monitor

import "codeberg.org/mutker/ddcctl/internal/errors"

const (
	ErrNotFound       = errors.ErrorCode("monitor_not_found")
	ErrDispatchFailed = errors.ErrorCode("monitor_dispatch_failed")
	ErrOpenFailed     = errors.ErrorCode("monitor_open_failed")
	ErrSetFailed      = errors.ErrorCode("monitor_set_failed")
)
