package ddc

import (
	"fmt"

	"codeberg.org/mutker/ddcctl/internal/errors"
)

const (
	// Initialization and Lifecycle Errors
	ErrLibraryUnavailable = errors.ErrorCode("ddc_library_unavailable")
	ErrInitFailed         = errors.ErrorCode("ddc_init_failed")
	ErrEnumerateFailed    = errors.ErrorCode("ddc_enumerate_failed")

	// Session Errors
	ErrOpenFailed    = errors.ErrorCode("ddc_open_failed")
	ErrInvalidHandle = errors.ErrorCode("ddc_invalid_handle")
	ErrCloseFailed   = errors.ErrorCode("ddc_close_failed")

	// Feature Errors
	ErrGetVcpFailed = errors.ErrorCode("ddc_get_vcp_failed")
	ErrSetVcpFailed = errors.ErrorCode("ddc_set_vcp_failed")
)

// Status is a native return code. Zero is success.
type Status int32

// StatusOK is the success status.
const StatusOK Status = 0

// StatusError carries a nonzero native status code. Codes are opaque to this
// package; Name is filled in when the library can describe them.
type StatusError struct {
	Status Status
	Name   string
}

func (e *StatusError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rc=%d (%s)", e.Status, e.Name)
	}
	return fmt.Sprintf("rc=%d", e.Status)
}

// newStatusError creates an error from a native status, or nil on success
func newStatusError(status Status, name func(Status) string) error {
	if status == StatusOK {
		return nil
	}

	e := &StatusError{Status: status}
	if name != nil {
		e.Name = name(status)
	}

	return e
}

// IsSuccess checks if a status indicates success
func IsSuccess(status Status) bool {
	return status == StatusOK
}

// StatusOf extracts the native status from err, if any.
func StatusOf(err error) (Status, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}

	return StatusOK, false
}
