package pulsegraph

// Level is the value carried by a pulse.
type Level uint8

const (
	// Low is the zero value; conjunction memory starts Low.
	Low Level = iota
	// High is the complementary pulse level.
	High
)

// String returns "low" or "high".
func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Kind identifies a module's behavior.
//
// Dispatch on Kind happens once per delivered pulse in the engine; there is
// no per-kind interface.
type Kind uint8

const (
	// Terminal modules are referenced only as destinations. They absorb
	// pulses and never emit.
	Terminal Kind = iota

	// Broadcast relays every received level unchanged to all destinations.
	Broadcast

	// FlipFlop ignores High pulses. A Low pulse toggles its on flag and
	// emits High when it turns on, Low when it turns off.
	FlipFlop

	// Conjunction remembers the last level received from each of its inputs
	// and emits Low when all remembered levels are High, High otherwise.
	Conjunction
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Broadcast:
		return "broadcast"
	case FlipFlop:
		return "flipflop"
	case Conjunction:
		return "conjunction"
	default:
		return "terminal"
	}
}

// prefix returns the declaration prefix for the kind.
func (k Kind) prefix() string {
	switch k {
	case FlipFlop:
		return "%"
	case Conjunction:
		return "&"
	default:
		return ""
	}
}

// ButtonName is the source name of the synthetic pulse that starts a press.
const ButtonName = "button"

// DefaultEntry is the module that receives the button pulse unless
// Network.SetEntry says otherwise.
const DefaultEntry = "broadcaster"

// DefaultTerminal is the sink watched by RunUntilTerminal in the command and
// the default terminal counted in press reports.
const DefaultTerminal = "rx"

// Pulse is a delivered signal as seen by an observer.
type Pulse struct {
	From  string
	To    string
	Level Level
}

// Report summarizes one press.
type Report struct {
	// Low is the number of Low pulses delivered, including the button pulse.
	Low int
	// High is the number of High pulses delivered.
	High int
	// TerminalLow counts Low pulses delivered to the engine's terminal.
	TerminalLow int
}

// Hit reports whether the terminal received at least one Low pulse.
func (r Report) Hit() bool {
	return r.TerminalLow > 0
}

// Total returns the number of pulses delivered.
func (r Report) Total() int {
	return r.Low + r.High
}

// Tally accumulates reports across presses.
type Tally struct {
	Presses int
	Low     int
	High    int
}

// Add folds a press report into the tally.
func (t *Tally) Add(r Report) {
	t.Presses++
	t.Low += r.Low
	t.High += r.High
}

// Product returns Low multiplied by High.
func (t Tally) Product() int {
	return t.Low * t.High
}
