package pulsegraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for parsing. They are wrapped in a *ParseError carrying the
// offending line.
var (
	// ErrMissingSeparator indicates a declaration without "->".
	ErrMissingSeparator = errors.New("missing '->' separator")

	// ErrDuplicateModule indicates a module name declared more than once.
	ErrDuplicateModule = errors.New("duplicate module")

	// ErrUnknownPrefix indicates a declaration starting with a character that
	// is neither '%', '&' nor alphanumeric.
	ErrUnknownPrefix = errors.New("unknown module prefix")

	// ErrLineTooLong indicates a declaration longer than MaxLineLength.
	ErrLineTooLong = errors.New("line too long")

	// ErrInvalidName indicates an empty or non-alphanumeric module name.
	ErrInvalidName = errors.New("invalid module name")
)

// Sentinel errors for compilation.
var (
	// ErrNoEntryPoint indicates the entry module name is empty.
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrEntryNotFound indicates the entry module was never declared.
	ErrEntryNotFound = errors.New("entry module not declared")
)

// Sentinel errors for simulation.
var (
	// ErrNilContext indicates a run was started with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrInvalidPressCount indicates RunFixed was asked for zero or fewer presses.
	ErrInvalidPressCount = errors.New("press count must be positive")

	// ErrTerminalNotFound indicates RunUntilTerminal targets a module the
	// circuit does not contain.
	ErrTerminalNotFound = errors.New("terminal module not found")

	// ErrMaxPresses indicates the press limit was reached before the
	// terminal received a Low pulse.
	ErrMaxPresses = errors.New("exceeded maximum presses")
)

// Reasons the accelerated terminal search falls back to plain simulation.
// They are logged, never returned to the caller.
var (
	errNoSingleGate     = errors.New("terminal is not fed by exactly one conjunction")
	errGateFeedsBack    = errors.New("gate output feeds its own inputs")
	errSharedUpstream   = errors.New("feeder sub-networks are not independent")
	errAperiodicFeeder  = errors.New("feeder does not fire with a period starting at zero")
	errSustainedFeeder  = errors.New("feeder leaves the gate input high after a press")
	errUnstableWindow   = errors.New("feeder pulses reach the gate at varying depths")
	errDisjointWindows  = errors.New("feeder high pulses never reach the gate together")
	errScanLimitReached = errors.New("scan limit reached before every feeder fired twice")
	errMissedAlignment  = errors.New("feeders aligned without reaching the terminal")
)

// ParseError reports a malformed declaration line.
type ParseError struct {
	// Line is the 1-based line number in the input.
	Line int
	// Text is the offending line with surrounding whitespace removed.
	Text string
	// Err is one of the parse sentinel errors.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap returns the underlying sentinel for errors.Is support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// CancellationError reports a run stopped by its context between presses.
type CancellationError struct {
	// Presses is the number of presses completed before cancellation.
	Presses int
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled after %d presses: %v", e.Presses, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// MaxPressesError reports a terminal search that hit its press limit.
type MaxPressesError struct {
	// Max is the configured press limit.
	Max int
	// Target is the terminal that was being watched.
	Target string
}

// Error implements the error interface.
func (e *MaxPressesError) Error() string {
	return fmt.Sprintf("exceeded maximum presses (%d) waiting for %s", e.Max, e.Target)
}

// Unwrap returns ErrMaxPresses for errors.Is support.
func (e *MaxPressesError) Unwrap() error {
	return ErrMaxPresses
}

// LedgerError wraps a failed ledger write. It is only returned when
// WithLedgerFailureFatal(true) is set.
type LedgerError struct {
	// RunID is the run whose record could not be saved.
	RunID string
	// Err is the underlying store error.
	Err error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger save for run %s: %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *LedgerError) Unwrap() error {
	return e.Err
}
