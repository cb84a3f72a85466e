package logic

// Source is an ordered, forward-only sequence of transitions.
// It can be consumed once; callers guarantee non-decreasing timestamps.
type Source interface {
	// Next returns the next transition, or false when the source is exhausted.
	Next() (Transition, bool)
}

type sliceSource struct {
	ts []Transition
	i  int
}

// FromSlice returns a Source yielding ts in order.
func FromSlice(ts []Transition) Source {
	return &sliceSource{ts: ts}
}

func (s *sliceSource) Next() (Transition, bool) {
	if s.i >= len(s.ts) {
		return Transition{}, false
	}
	t := s.ts[s.i]
	s.i++
	return t, true
}
