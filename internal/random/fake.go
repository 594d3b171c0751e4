package random

// Fixed is a Source that always returns the same values. Useful in tests that
// need to hit an exact branch of a threshold rule.
type Fixed struct {
	// F is returned by Float64. It should be in [0, 1).
	F float64
	// I is returned by IntN, clamped to n-1.
	I int
}

// Float64 returns f.F.
func (f Fixed) Float64() float64 {
	return f.F
}

// IntN returns f.I, clamped to [0, n).
func (f Fixed) IntN(n int) int {
	if f.I >= n {
		return n - 1
	}
	if f.I < 0 {
		return 0
	}
	return f.I
}

// Sequence is a Source that replays scripted Float64 values in order,
// repeating the last one when exhausted. IntN derives from the same stream.
type Sequence struct {
	Values []float64
	index  int
}

// Float64 returns the next scripted value.
func (s *Sequence) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.index]
	if s.index < len(s.Values)-1 {
		s.index++
	}
	return v
}

// IntN maps the next scripted value onto [0, n).
func (s *Sequence) IntN(n int) int {
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
