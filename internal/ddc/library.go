package ddc

import (
	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
)

// Library is the native display-control surface. Every method that fails on
// a native call returns an error carrying a *StatusError.
type Library interface {
	// Init initializes the library. Repeated calls return the first result.
	Init() error
	// DisplayRefs returns the references of all detected displays.
	DisplayRefs() ([]DisplayRef, error)
	// Open opens a session on ref.
	Open(ref DisplayRef, wait bool) (DisplayHandle, error)
	// GetNonTableValue queries a non-table feature.
	GetNonTableValue(h DisplayHandle, code FeatureCode) (VcpValue, error)
	// SetNonTableValue sets a non-table feature from its high/low bytes.
	SetNonTableValue(h DisplayHandle, code FeatureCode, high, low uint8) error
	// Close closes a session.
	Close(h DisplayHandle) error
	// Describe returns a human-readable label for ref, best effort.
	Describe(ref DisplayRef) string
}

// WithHandle opens ref, runs fn with the handle and closes the handle on
// every path, including panics in fn. fn is not called when opening fails.
// A close failure is only logged, so it never turns a completed operation
// into a failure.
func WithHandle(lib Library, ref DisplayRef, wait bool, fn func(DisplayHandle) error) error {
	h, err := lib.Open(ref, wait)
	if err != nil {
		return err
	}
	if h.IsZero() {
		return errors.New().New(ErrInvalidHandle)
	}

	defer func() {
		if err := lib.Close(h); err != nil {
			logger.Warn().Err(err).Str("display", lib.Describe(ref)).Msg("Failed to close display handle")
		}
	}()

	return fn(h)
}

var _ Library = (*Native)(nil)
