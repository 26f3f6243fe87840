package monitor

import (
	"codeberg.org/mutker/ddcctl/internal/ddc"
	"codeberg.org/mutker/ddcctl/internal/logger"
)

// DefaultBrightness is reported for displays that cannot be read.
const DefaultBrightness uint8 = 50

// Reading is the result of a brightness query.
type Reading struct {
	Percent uint8
	Current uint16
	Max     uint16
	// OK is false when the value is the fallback default.
	OK bool
}

// Reader queries the current brightness of a display. It never fails: any
// native error yields the fallback value.
type Reader struct {
	lib      ddc.Library
	wait     bool
	fallback uint8
}

type ReaderOption func(*Reader)

// WithFallback sets the percentage reported when a read fails.
func WithFallback(percent uint8) ReaderOption {
	return func(r *Reader) {
		if percent > 100 {
			percent = 100
		}
		r.fallback = percent
	}
}

// WithWait makes the reader wait for a display lock on open.
func WithWait(wait bool) ReaderOption {
	return func(r *Reader) {
		r.wait = wait
	}
}

func NewReader(lib ddc.Library, opts ...ReaderOption) *Reader {
	r := &Reader{lib: lib, fallback: DefaultBrightness}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read opens ref, queries the brightness feature and closes ref again.
func (r *Reader) Read(ref ddc.DisplayRef) Reading {
	reading := Reading{Percent: r.fallback}

	err := ddc.WithHandle(r.lib, ref, r.wait, func(h ddc.DisplayHandle) error {
		value, err := r.lib.GetNonTableValue(h, ddc.FeatureBrightness)
		if err != nil {
			return err
		}

		reading = Reading{
			Percent: value.Percent(),
			Current: value.Current(),
			Max:     value.Max(),
			OK:      true,
		}
		return nil
	})
	if err != nil {
		logger.Warn().
			Err(err).
			Str("display", r.lib.Describe(ref)).
			Uint8("fallback", r.fallback).
			Msg("Failed to read brightness")
	}

	return reading
}
