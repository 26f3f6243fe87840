//go:build linux

package ddc

import (
	"sync"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
	"github.com/ebitengine/purego"
)

const (
	// DDCA_SYSLOG_ERROR
	initSyslogLevel = 2
	// DDCA_INIT_OPTIONS_NONE
	initOptions = 0
)

// Native binds libddcutil at run time. Library state is process-wide: the
// shared object is loaded and initialized once, on the first Init call.
type Native struct {
	paths []string

	once sync.Once
	err  error

	ddcaInit                func(libopts *byte, syslogLevel, opts int32) int32
	ddcaGetDisplayRefs      func(includeInvalid bool, drefs **uintptr) int32
	ddcaOpenDisplay2        func(dref uintptr, wait bool, dh *uintptr) int32
	ddcaGetNonTableVcpValue func(dh uintptr, code uint8, value *VcpValue) int32
	ddcaSetNonTableVcpValue func(dh uintptr, code uint8, high, low uint8) int32
	ddcaCloseDisplay        func(dh uintptr) int32
	ddcaRcName              func(status int32) string
	ddcaDrefRepr            func(dref uintptr) string
}

// NewNative returns a binding that loads the first of paths that can be opened.
func NewNative(paths ...string) *Native {
	return &Native{paths: paths}
}

func (n *Native) Init() error {
	n.once.Do(func() {
		n.err = n.load()
	})
	return n.err
}

func (n *Native) load() error {
	errFactory := errors.New()

	var (
		lib     uintptr
		openErr error
	)
	for _, path := range n.paths {
		lib, openErr = purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if openErr == nil {
			logger.Debug().Str("path", path).Msg("Loaded display library")
			break
		}
		logger.Debug().Err(openErr).Str("path", path).Msg("Failed to load display library")
	}
	if lib == 0 {
		return errFactory.Wrap(ErrLibraryUnavailable, openErr)
	}

	required := []struct {
		fptr any
		name string
	}{
		{&n.ddcaGetDisplayRefs, "ddca_get_display_refs"},
		{&n.ddcaOpenDisplay2, "ddca_open_display2"},
		{&n.ddcaGetNonTableVcpValue, "ddca_get_non_table_vcp_value"},
		{&n.ddcaSetNonTableVcpValue, "ddca_set_non_table_vcp_value"},
		{&n.ddcaCloseDisplay, "ddca_close_display"},
	}
	for _, fn := range required {
		sym, err := purego.Dlsym(lib, fn.name)
		if err != nil {
			return errFactory.WithData(ErrLibraryUnavailable, fn.name)
		}
		purego.RegisterFunc(fn.fptr, sym)
	}

	// Older releases lack these; they are not needed to drive a display.
	optional := []struct {
		fptr any
		name string
	}{
		{&n.ddcaInit, "ddca_init"},
		{&n.ddcaRcName, "ddca_rc_name"},
		{&n.ddcaDrefRepr, "ddca_dref_repr"},
	}
	for _, fn := range optional {
		sym, err := purego.Dlsym(lib, fn.name)
		if err != nil {
			logger.Debug().Str("symbol", fn.name).Msg("Optional symbol not found")
			continue
		}
		purego.RegisterFunc(fn.fptr, sym)
	}

	if n.ddcaInit != nil {
		status := Status(n.ddcaInit(nil, initSyslogLevel, initOptions))
		if !IsSuccess(status) {
			return errFactory.Wrap(ErrInitFailed, n.statusError(status))
		}
	}

	return nil
}

func (n *Native) statusError(status Status) error {
	var name func(Status) string
	if n.ddcaRcName != nil {
		name = func(s Status) string { return n.ddcaRcName(int32(s)) }
	}
	return newStatusError(status, name)
}

func (n *Native) DisplayRefs() ([]DisplayRef, error) {
	errFactory := errors.New()
	if err := n.Init(); err != nil {
		return nil, err
	}

	var first *uintptr
	status := Status(n.ddcaGetDisplayRefs(false, &first))
	if !IsSuccess(status) {
		return nil, errFactory.Wrap(ErrEnumerateFailed, n.statusError(status))
	}
	if first == nil {
		return nil, errFactory.WithMessage(ErrEnumerateFailed, "library returned no display list")
	}

	return walkRefs(first), nil
}

func (n *Native) Open(ref DisplayRef, wait bool) (DisplayHandle, error) {
	errFactory := errors.New()
	if err := n.Init(); err != nil {
		return DisplayHandle{}, err
	}

	var dh uintptr
	status := Status(n.ddcaOpenDisplay2(ref.Pointer(), wait, &dh))
	if !IsSuccess(status) {
		return DisplayHandle{}, errFactory.Wrap(ErrOpenFailed, n.statusError(status))
	}
	if dh == 0 {
		return DisplayHandle{}, errFactory.New(ErrInvalidHandle)
	}

	return MakeDisplayHandle(dh), nil
}

func (n *Native) GetNonTableValue(h DisplayHandle, code FeatureCode) (VcpValue, error) {
	errFactory := errors.New()
	if err := n.Init(); err != nil {
		return VcpValue{}, err
	}

	var value VcpValue
	status := Status(n.ddcaGetNonTableVcpValue(h.Pointer(), uint8(code), &value))
	if !IsSuccess(status) {
		return VcpValue{}, errFactory.Wrap(ErrGetVcpFailed, n.statusError(status))
	}

	return value, nil
}

func (n *Native) SetNonTableValue(h DisplayHandle, code FeatureCode, high, low uint8) error {
	errFactory := errors.New()
	if err := n.Init(); err != nil {
		return err
	}

	status := Status(n.ddcaSetNonTableVcpValue(h.Pointer(), uint8(code), high, low))
	if !IsSuccess(status) {
		return errFactory.Wrap(ErrSetVcpFailed, n.statusError(status))
	}

	return nil
}

func (n *Native) Close(h DisplayHandle) error {
	errFactory := errors.New()
	if err := n.Init(); err != nil {
		return err
	}

	status := Status(n.ddcaCloseDisplay(h.Pointer()))
	if !IsSuccess(status) {
		return errFactory.Wrap(ErrCloseFailed, n.statusError(status))
	}

	return nil
}

func (n *Native) Describe(ref DisplayRef) string {
	if n.Init() == nil && n.ddcaDrefRepr != nil {
		if repr := n.ddcaDrefRepr(ref.Pointer()); repr != "" {
			return repr
		}
	}
	return describeFallback(ref)
}
