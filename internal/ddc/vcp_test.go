package ddc_test

import (
	"testing"

	"codeberg.org/mutker/ddcctl/internal/ddc"
	"github.com/stretchr/testify/assert"
)

func TestDecodeAllPairs(t *testing.T) {
	for high := 0; high <= 0xff; high++ {
		for low := 0; low <= 0xff; low++ {
			got := ddc.Decode(uint8(high), uint8(low))
			if got != uint16(high*256+low) {
				t.Fatalf("Decode(%d, %d) = %d, want %d", high, low, got, high*256+low)
			}

			h, l := ddc.Encode(got)
			if h != uint8(high) || l != uint8(low) {
				t.Fatalf("Encode(%d) = (%d, %d), want (%d, %d)", got, h, l, high, low)
			}
		}
	}
}

func TestVcpValue(t *testing.T) {
	v := ddc.VcpValue{MaxHigh: 0x01, MaxLow: 0x2c, CurrentHigh: 0x00, CurrentLow: 0x96}

	assert.Equal(t, uint16(300), v.Max())
	assert.Equal(t, uint16(150), v.Current())
	assert.Equal(t, uint8(50), v.Percent())
}

func TestToPercent(t *testing.T) {
	tests := []struct {
		name    string
		raw     uint16
		maximum uint16
		want    uint8
	}{
		{"common range", 73, 100, 73},
		{"zero maximum assumes 100", 73, 0, 73},
		{"zero maximum clamps", 255, 0, 100},
		{"extended range", 500, 1000, 50},
		{"rounds to nearest", 2, 3, 67},
		{"above maximum", 120, 100, 100},
		{"zero", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ddc.ToPercent(tt.raw, tt.maximum))
		})
	}
}

func TestFromPercent(t *testing.T) {
	tests := []struct {
		name    string
		percent uint8
		maximum uint16
		want    uint16
	}{
		{"common range", 80, 100, 80},
		{"zero maximum assumes 100", 80, 0, 80},
		{"extended range", 50, 1000, 500},
		{"full scale 8-bit", 100, 255, 255},
		{"clamps percent", 150, 100, 100},
		{"rounds to nearest", 33, 255, 84},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ddc.FromPercent(tt.percent, tt.maximum))
		})
	}
}
