//go:build !linux

package ddc

import "codeberg.org/mutker/ddcctl/internal/errors"

// Native is unavailable off Linux; every call reports ErrLibraryUnavailable.
type Native struct{}

func NewNative(_ ...string) *Native {
	return &Native{}
}

func (*Native) unavailable() error {
	return errors.New().WithMessage(ErrLibraryUnavailable, "libddcutil is only available on linux")
}

func (n *Native) Init() error { return n.unavailable() }

func (n *Native) DisplayRefs() ([]DisplayRef, error) { return nil, n.unavailable() }

func (n *Native) Open(DisplayRef, bool) (DisplayHandle, error) {
	return DisplayHandle{}, n.unavailable()
}

func (n *Native) GetNonTableValue(DisplayHandle, FeatureCode) (VcpValue, error) {
	return VcpValue{}, n.unavailable()
}

func (n *Native) SetNonTableValue(DisplayHandle, FeatureCode, uint8, uint8) error {
	return n.unavailable()
}

func (n *Native) Close(DisplayHandle) error { return n.unavailable() }

func (*Native) Describe(ref DisplayRef) string { return describeFallback(ref) }
