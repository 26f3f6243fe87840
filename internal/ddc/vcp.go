package ddc

// defaultMaximum is assumed when a display reports a maximum of zero.
const defaultMaximum = 100

// VcpValue mirrors DDCA_Non_Table_Vcp_Value. Field order follows the C
// layout (mh, ml, sh, sl).
type VcpValue struct {
	MaxHigh     uint8
	MaxLow      uint8
	CurrentHigh uint8
	CurrentLow  uint8
}

// Decode packs a high/low byte pair into a 16-bit value.
func Decode(high, low uint8) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// Encode splits a 16-bit value into its high/low byte pair.
func Encode(value uint16) (high, low uint8) {
	return uint8(value >> 8), uint8(value)
}

// Current returns the decoded current value.
func (v VcpValue) Current() uint16 {
	return Decode(v.CurrentHigh, v.CurrentLow)
}

// Max returns the decoded maximum value.
func (v VcpValue) Max() uint16 {
	return Decode(v.MaxHigh, v.MaxLow)
}

// Percent returns the current value as a percentage of the maximum.
func (v VcpValue) Percent() uint8 {
	return ToPercent(v.Current(), v.Max())
}

// ToPercent scales raw against maximum into [0,100], rounding to nearest.
// A zero maximum is treated as 100.
func ToPercent(raw, maximum uint16) uint8 {
	if maximum == 0 {
		maximum = defaultMaximum
	}
	if raw >= maximum {
		return 100
	}

	return uint8((uint32(raw)*100 + uint32(maximum)/2) / uint32(maximum))
}

// FromPercent scales a percentage into the display's raw range, rounding to
// nearest. Percentages above 100 are clamped. A zero maximum is treated as 100.
func FromPercent(percent uint8, maximum uint16) uint16 {
	if maximum == 0 {
		maximum = defaultMaximum
	}
	if percent > 100 {
		percent = 100
	}

	return uint16((uint32(percent)*uint32(maximum) + 50) / 100)
}
