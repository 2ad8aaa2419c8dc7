package pulsegraph

// Engine executes presses against one circuit and owns the run's module
// state. State persists across presses until Reset.
//
// Engine is NOT safe for concurrent use. Create one engine per goroutine;
// they can share the same Circuit.
type Engine struct {
	circuit  *Circuit
	state    *state
	queue    *pulseQueue
	terminal int
	presses  int
	observe  func(p queued)
}

// NewEngine creates an engine with freshly initialized state: flip-flops off
// and conjunction inputs Low. Low pulses delivered to terminal are counted in
// each Report; an unknown terminal name disables the count.
func NewEngine(c *Circuit, terminal string) *Engine {
	e := &Engine{
		circuit:  c,
		state:    newState(c),
		queue:    newPulseQueue(),
		terminal: -1,
	}
	if id, ok := c.index[terminal]; ok {
		e.terminal = id
	}
	return e
}

// Press sends one Low pulse from the button to the entry module and delivers
// pulses in FIFO order until none remain.
//
// Press flow:
//  1. Enqueue button -> entry, Low
//  2. Dequeue the head pulse and tally it by level
//  3. Count a terminal hit for a Low pulse to the terminal
//  4. Apply the destination's transition; if it emits, enqueue one pulse per
//     outgoing edge in declared order
//  5. Repeat until the queue is empty
func (e *Engine) Press() Report {
	var r Report
	c := e.circuit
	e.queue.push(queued{from: buttonID, to: c.entry, slot: -1, level: Low})

	for e.queue.len() > 0 {
		p := e.queue.pop()
		if p.level == Low {
			r.Low++
			if p.to == e.terminal {
				r.TerminalLow++
			}
		} else {
			r.High++
		}
		if e.observe != nil {
			e.observe(p)
		}

		if c.kinds[p.to] == Terminal {
			continue
		}
		out, ok := e.state.transition(p.to, p.slot, p.level)
		if !ok {
			continue
		}
		for _, edge := range c.edges[p.to] {
			e.queue.push(queued{from: p.to, to: edge.to, slot: edge.slot, level: out, depth: p.depth + 1})
		}
	}

	e.presses++
	return r
}

// Presses returns the number of completed presses since creation or Reset.
func (e *Engine) Presses() int {
	return e.presses
}

// Reset restores the initial state and clears the press counter.
func (e *Engine) Reset() {
	e.state = newState(e.circuit)
	e.presses = 0
}

// Observe registers fn to be called for every delivered pulse, in delivery
// order. Passing nil removes the observer.
func (e *Engine) Observe(fn func(Pulse)) {
	if fn == nil {
		e.observe = nil
		return
	}
	e.observe = func(p queued) {
		fn(Pulse{From: e.nameOf(p.from), To: e.circuit.names[p.to], Level: p.level})
	}
}

// Process delivers a single pulse to module from the named sender and returns
// what the module emits, without enqueueing anything. It mutates the
// module's state exactly as a delivery during Press would.
//
// The second result is false when the module does not emit: flip-flops
// receiving High, terminals and unknown modules. A sender that is not a
// tracked input of a conjunction leaves its memory unchanged.
func (e *Engine) Process(module, from string, level Level) (Level, bool) {
	c := e.circuit
	id, ok := c.index[module]
	if !ok || c.kinds[id] == Terminal {
		return Low, false
	}
	slot := -1
	if src, ok := c.index[from]; ok {
		for i, in := range c.inputs[id] {
			if in == src {
				slot = i
				break
			}
		}
	}
	return e.state.transition(id, slot, level)
}

// FlipFlopOn reports the flag of a flip-flop. The second result is false if
// name is not a flip-flop.
func (e *Engine) FlipFlopOn(name string) (on bool, ok bool) {
	id, found := e.circuit.index[name]
	if !found || e.circuit.kinds[id] != FlipFlop {
		return false, false
	}
	return e.state.on[id], true
}

// Memory returns a copy of a conjunction's remembered input levels keyed by
// input name. Returns nil if name is not a conjunction.
func (e *Engine) Memory(name string) map[string]Level {
	id, found := e.circuit.index[name]
	if !found || e.circuit.kinds[id] != Conjunction {
		return nil
	}
	levels := e.state.remembered(id)
	out := make(map[string]Level, len(levels))
	for slot, in := range e.circuit.inputs[id] {
		out[e.circuit.names[in]] = levels[slot]
	}
	return out
}

func (e *Engine) nameOf(id int) string {
	if id == buttonID {
		return ButtonName
	}
	return e.circuit.names[id]
}
