//go:build linux

package ddc

import (
	"path/filepath"
	"testing"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestInitArguments(t *testing.T) {
	// ddca_init(NULL, DDCA_SYSLOG_ERROR, DDCA_INIT_OPTIONS_NONE)
	assert.Equal(t, 2, initSyslogLevel)
	assert.Equal(t, 0, initOptions)
}

func TestNativeMissingLibrary(t *testing.T) {
	n := NewNative(filepath.Join(t.TempDir(), "libddcutil.so.5"))

	err := n.Init()
	assert.True(t, errors.HasCode(err, ErrLibraryUnavailable))
	assert.Equal(t, err, n.Init(), "load is attempted once")

	_, err = n.DisplayRefs()
	assert.True(t, errors.HasCode(err, ErrLibraryUnavailable))
	assert.Equal(t, "display@0x10", n.Describe(MakeDisplayRef(0x10)))
}
