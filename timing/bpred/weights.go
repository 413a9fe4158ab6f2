package bpred

// WeightVector is the perceptron's weight storage: one counter per history
// bit followed by the bias counter. The bias is paired with a constant
// "taken" input.
type WeightVector struct {
	counters      []SatCounter
	historyLength int
}

// NewWeightVector creates historyLength+1 zeroed counters of the given width.
func NewWeightVector(historyLength, bits int) *WeightVector {
	counters := make([]SatCounter, historyLength+1)
	for i := range counters {
		counters[i] = NewSatCounter(bits)
	}

	return &WeightVector{
		counters:      counters,
		historyLength: historyLength,
	}
}

// Len returns the number of counters including the bias.
func (w *WeightVector) Len() int {
	return len(w.counters)
}

// BiasIndex returns the index of the bias weight.
func (w *WeightVector) BiasIndex() int {
	return w.historyLength
}

// Dot computes the bias plus the sum of +W[i] for every set history bit and
// -W[i] for every clear one. Only the low historyLength bits of ghr matter.
func (w *WeightVector) Dot(ghr uint64) int32 {
	var sum int32

	for i := 0; i < w.historyLength; i++ {
		if (ghr>>uint(i))&1 == 1 {
			sum += w.counters[i].Value()
		} else {
			sum -= w.counters[i].Value()
		}
	}

	return sum + w.counters[w.historyLength].Value()
}

// Train moves every history weight toward agreement with taken: a weight
// whose history bit matches the outcome is incremented, otherwise it is
// decremented. The bias follows the outcome directly.
func (w *WeightVector) Train(snapshot uint64, taken bool) {
	for i := 0; i < w.historyLength; i++ {
		bit := (snapshot>>uint(i))&1 == 1
		if bit == taken {
			w.counters[i].Increment()
		} else {
			w.counters[i].Decrement()
		}
	}

	if taken {
		w.counters[w.historyLength].Increment()
	} else {
		w.counters[w.historyLength].Decrement()
	}
}

// Value returns weight i.
func (w *WeightVector) Value(i int) int32 {
	return w.counters[i].Value()
}

// Set stores weight i, clamped into the counter range.
func (w *WeightVector) Set(i int, v int32) {
	w.counters[i].Set(v)
}

// Values returns a copy of all weights, bias last.
func (w *WeightVector) Values() []int32 {
	values := make([]int32, len(w.counters))
	for i := range w.counters {
		values[i] = w.counters[i].Value()
	}
	return values
}

// Reset zeroes every weight.
func (w *WeightVector) Reset() {
	for i := range w.counters {
		w.counters[i].Reset()
	}
}
