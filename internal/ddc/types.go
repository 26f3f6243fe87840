package ddc

import "fmt"

// FeatureCode identifies a VCP feature.
type FeatureCode uint8

// FeatureBrightness is the VCP code for luminance.
const FeatureBrightness FeatureCode = 0x10

// DisplayRef identifies a display discovered by the native library. It is
// valid for the lifetime of the process and is only ever handed back to the
// library.
type DisplayRef struct {
	p uintptr
}

// DisplayHandle is an open session on a display. It must be closed exactly
// once by whoever opened it; see WithHandle.
type DisplayHandle struct {
	p uintptr
}

// MakeDisplayRef wraps a native display reference. It is meant for Library
// implementations only.
func MakeDisplayRef(p uintptr) DisplayRef {
	return DisplayRef{p: p}
}

// MakeDisplayHandle wraps a native display handle. It is meant for Library
// implementations only.
func MakeDisplayHandle(p uintptr) DisplayHandle {
	return DisplayHandle{p: p}
}

// IsZero reports whether r is the null reference.
func (r DisplayRef) IsZero() bool {
	return r.p == 0
}

// Pointer returns the native value for the call boundary.
func (r DisplayRef) Pointer() uintptr {
	return r.p
}

// IsZero reports whether h is the null handle.
func (h DisplayHandle) IsZero() bool {
	return h.p == 0
}

// Pointer returns the native value for the call boundary.
func (h DisplayHandle) Pointer() uintptr {
	return h.p
}

func describeFallback(ref DisplayRef) string {
	return fmt.Sprintf("display@%#x", ref.p)
}
