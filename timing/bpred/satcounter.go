package bpred

// MaxWeightBits is the widest counter a weight can use.
const MaxWeightBits = 8

// SatCounter is a signed saturating counter of 1 to 8 bits. A b-bit counter
// holds values in [-(2^(b-1)), 2^(b-1)-1] and clamps instead of wrapping.
type SatCounter struct {
	value int8
	min   int8
	max   int8
}

// NewSatCounter creates a zeroed counter with the given width in bits.
// Widths outside [1, MaxWeightBits] panic; Config.Validate rejects them
// before a predictor is built.
func NewSatCounter(bits int) SatCounter {
	if bits < 1 || bits > MaxWeightBits {
		panic("bpred: saturating counter width out of range")
	}

	half := 1 << (bits - 1)

	return SatCounter{
		min: int8(-half),
		max: int8(half - 1),
	}
}

// Increment adds one, saturating at the maximum.
func (c *SatCounter) Increment() {
	if c.value < c.max {
		c.value++
	}
}

// Decrement subtracts one, saturating at the minimum.
func (c *SatCounter) Decrement() {
	if c.value > c.min {
		c.value--
	}
}

// Value returns the counter as a signed integer.
func (c SatCounter) Value() int32 {
	return int32(c.value)
}

// Set stores v clamped into the counter's range.
func (c *SatCounter) Set(v int32) {
	switch {
	case v > int32(c.max):
		c.value = c.max
	case v < int32(c.min):
		c.value = c.min
	default:
		c.value = int8(v)
	}
}

// Min returns the smallest representable value.
func (c SatCounter) Min() int32 {
	return int32(c.min)
}

// Max returns the largest representable value.
func (c SatCounter) Max() int32 {
	return int32(c.max)
}

// Reset sets the counter back to zero.
func (c *SatCounter) Reset() {
	c.value = 0
}
