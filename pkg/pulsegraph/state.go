package pulsegraph

// state is the module state table for one run: flip-flop flags and
// conjunction memory. It is owned by a single Engine and only mutated by
// transition.
type state struct {
	kinds []Kind // shared with the Circuit, read-only

	on []bool // flip-flop flags by module id

	// Conjunction memory is one flat slice; module id owns
	// memory[offset[id] : offset[id]+width[id]].
	memory []Level
	offset []int
	width  []int
	highs  []int // remembered High levels per conjunction
}

func newState(c *Circuit) *state {
	s := &state{
		kinds:  c.kinds,
		on:     make([]bool, len(c.names)),
		offset: make([]int, len(c.names)),
		width:  make([]int, len(c.names)),
		highs:  make([]int, len(c.names)),
	}
	total := 0
	for id, in := range c.inputs {
		s.offset[id] = total
		s.width[id] = len(in)
		total += len(in)
	}
	s.memory = make([]Level, total)
	return s
}

// transition delivers level to module id from the input occupying slot and
// returns the level the module emits, if any. slot is negative when the
// sender is not a tracked input (the button pulse).
func (s *state) transition(id, slot int, level Level) (Level, bool) {
	switch s.kinds[id] {
	case Broadcast:
		return level, true

	case FlipFlop:
		if level == High {
			return Low, false
		}
		s.on[id] = !s.on[id]
		if s.on[id] {
			return High, true
		}
		return Low, true

	case Conjunction:
		if slot >= 0 {
			i := s.offset[id] + slot
			if s.memory[i] != level {
				s.memory[i] = level
				if level == High {
					s.highs[id]++
				} else {
					s.highs[id]--
				}
			}
		}
		// Zero tracked inputs is vacuously all High.
		if s.highs[id] == s.width[id] {
			return Low, true
		}
		return High, true

	default:
		return Low, false
	}
}

// remembered returns the conjunction memory of id in slot order.
func (s *state) remembered(id int) []Level {
	start := s.offset[id]
	return s.memory[start : start+s.width[id]]
}
