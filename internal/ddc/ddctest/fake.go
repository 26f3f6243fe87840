// Package ddctest provides an in-memory ddc.Library for tests.
package ddctest

import (
	"fmt"
	"sync"

	"codeberg.org/mutker/ddcctl/internal/ddc"
	"codeberg.org/mutker/ddcctl/internal/errors"
)

// Op names a recorded library call.
type Op string

const (
	OpInit  Op = "init"
	OpRefs  Op = "refs"
	OpOpen  Op = "open"
	OpGet   Op = "get"
	OpSet   Op = "set"
	OpClose Op = "close"
)

// Call is one recorded library call.
type Call struct {
	Op      Op
	Display int
	Code    ddc.FeatureCode
	High    uint8
	Low     uint8
}

// Display is a simulated monitor.
type Display struct {
	Value       ddc.VcpValue
	OpenStatus  ddc.Status
	ZeroHandle  bool
	GetStatus   ddc.Status
	SetStatus   ddc.Status
	CloseStatus ddc.Status
}

// Library is a scripted, concurrency-safe fake of the native library.
// Display i is addressed by reference i+1.
type Library struct {
	InitStatus      ddc.Status
	EnumerateStatus ddc.Status
	Displays        []*Display

	// BeforeSet, when set, runs before a set call is applied, outside the lock.
	BeforeSet func(display int, high, low uint8)

	mu          sync.Mutex
	calls       []Call
	nextHandle  uintptr
	handles     map[uintptr]int
	inFlight    map[int]int
	maxInFlight map[int]int
}

// New returns a fake with one display per value.
func New(values ...ddc.VcpValue) *Library {
	lib := &Library{}
	for _, v := range values {
		lib.Displays = append(lib.Displays, &Display{Value: v})
	}
	return lib
}

// Brightness returns a VcpValue with the given current and maximum.
func Brightness(current, maximum uint16) ddc.VcpValue {
	ch, cl := ddc.Encode(current)
	mh, ml := ddc.Encode(maximum)
	return ddc.VcpValue{MaxHigh: mh, MaxLow: ml, CurrentHigh: ch, CurrentLow: cl}
}

func (l *Library) record(c Call) {
	l.calls = append(l.calls, c)
}

func (l *Library) display(ref ddc.DisplayRef) (int, *Display) {
	i := int(ref.Pointer()) - 1
	if i < 0 || i >= len(l.Displays) {
		panic(fmt.Sprintf("ddctest: unknown display reference %#x", ref.Pointer()))
	}
	return i, l.Displays[i]
}

func fail(code errors.ErrorCode, status ddc.Status) error {
	if ddc.IsSuccess(status) {
		return nil
	}
	return errors.New().Wrap(code, &ddc.StatusError{Status: status})
}

func (l *Library) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(Call{Op: OpInit, Display: -1})
	return fail(ddc.ErrInitFailed, l.InitStatus)
}

func (l *Library) DisplayRefs() ([]ddc.DisplayRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(Call{Op: OpRefs, Display: -1})
	if err := fail(ddc.ErrEnumerateFailed, l.EnumerateStatus); err != nil {
		return nil, err
	}

	refs := make([]ddc.DisplayRef, len(l.Displays))
	for i := range l.Displays {
		refs[i] = ddc.MakeDisplayRef(uintptr(i + 1))
	}
	return refs, nil
}

func (l *Library) Open(ref ddc.DisplayRef, _ bool) (ddc.DisplayHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, d := l.display(ref)
	l.record(Call{Op: OpOpen, Display: i})
	if err := fail(ddc.ErrOpenFailed, d.OpenStatus); err != nil {
		return ddc.DisplayHandle{}, err
	}
	if d.ZeroHandle {
		return ddc.DisplayHandle{}, nil
	}

	if l.handles == nil {
		l.handles = make(map[uintptr]int)
		l.inFlight = make(map[int]int)
		l.maxInFlight = make(map[int]int)
	}
	l.nextHandle++
	h := 0x1000 + l.nextHandle
	l.handles[h] = i
	l.inFlight[i]++
	if l.inFlight[i] > l.maxInFlight[i] {
		l.maxInFlight[i] = l.inFlight[i]
	}

	return ddc.MakeDisplayHandle(h), nil
}

func (l *Library) handle(h ddc.DisplayHandle) (int, *Display) {
	i, ok := l.handles[h.Pointer()]
	if !ok {
		panic(fmt.Sprintf("ddctest: handle %#x is not open", h.Pointer()))
	}
	return i, l.Displays[i]
}

func (l *Library) GetNonTableValue(h ddc.DisplayHandle, code ddc.FeatureCode) (ddc.VcpValue, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, d := l.handle(h)
	l.record(Call{Op: OpGet, Display: i, Code: code})
	if err := fail(ddc.ErrGetVcpFailed, d.GetStatus); err != nil {
		return ddc.VcpValue{}, err
	}
	return d.Value, nil
}

func (l *Library) SetNonTableValue(h ddc.DisplayHandle, code ddc.FeatureCode, high, low uint8) error {
	l.mu.Lock()
	i, _ := l.handle(h)
	hook := l.BeforeSet
	l.mu.Unlock()

	if hook != nil {
		hook(i, high, low)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.Displays[i]
	l.record(Call{Op: OpSet, Display: i, Code: code, High: high, Low: low})
	if err := fail(ddc.ErrSetVcpFailed, d.SetStatus); err != nil {
		return err
	}
	d.Value.CurrentHigh, d.Value.CurrentLow = high, low
	return nil
}

func (l *Library) Close(h ddc.DisplayHandle) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, d := l.handle(h)
	l.record(Call{Op: OpClose, Display: i})
	delete(l.handles, h.Pointer())
	l.inFlight[i]--
	return fail(ddc.ErrCloseFailed, d.CloseStatus)
}

func (l *Library) Describe(ref ddc.DisplayRef) string {
	return fmt.Sprintf("fake-%d", ref.Pointer()-1)
}

// Calls returns a copy of the recorded calls.
func (l *Library) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()

	calls := make([]Call, len(l.calls))
	copy(calls, l.calls)
	return calls
}

// Ops returns the recorded operations for one display, in order.
func (l *Library) Ops(display int) []Op {
	var ops []Op
	for _, c := range l.Calls() {
		if c.Display == display {
			ops = append(ops, c.Op)
		}
	}
	return ops
}

// OpenHandles returns the number of handles not yet closed.
func (l *Library) OpenHandles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handles)
}

// MaxConcurrent returns the highest number of simultaneously open handles
// seen for a display.
func (l *Library) MaxConcurrent(display int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxInFlight[display]
}

var _ ddc.Library = (*Library)(nil)
