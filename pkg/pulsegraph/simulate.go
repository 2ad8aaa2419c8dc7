package pulsegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/ledger"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/observability"
)

// RunFixed presses the button n times on a freshly initialized engine and
// returns the accumulated pulse counts. Tally.Product is the Low*High answer.
//
// Run flow:
//  1. Validate arguments
//  2. Check for cancellation
//  3. Press once and fold the report into the tally
//  4. Repeat until n presses are done
//  5. Record the outcome (logs, metrics, ledger)
//
// Example:
//
//	tally, err := circuit.RunFixed(ctx, 1000)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(tally.Product())
func (c *Circuit) RunFixed(ctx context.Context, n int, opts ...RunOption) (Tally, error) {
	if ctx == nil {
		return Tally{}, ErrNilContext
	}
	if n <= 0 {
		return Tally{}, fmt.Errorf("%w: %d", ErrInvalidPressCount, n)
	}

	cfg := newRunConfig(opts)
	run := c.startRun(ctx, &cfg, ledger.ModeFixed)

	e := NewEngine(c, cfg.terminal)
	var tally Tally
	var runErr error
	for e.Presses() < n {
		if err := cancelled(run.ctx, e); err != nil {
			runErr = err
			break
		}
		run.press(e.Press(), e, &tally)
	}

	if runErr != nil {
		return Tally{}, run.fail(runErr, e.Presses())
	}
	err := run.complete(ledger.Record{
		Presses: tally.Presses,
		Low:     tally.Low,
		High:    tally.High,
		Answer:  tally.Product(),
	})
	if err != nil {
		return Tally{}, err
	}
	return tally, nil
}

// RunUntilTerminal presses the button until target receives a Low pulse and
// returns the 1-indexed number of that press. State carries over between
// presses; each call starts from a freshly initialized engine.
//
// target must be a module of the circuit. Without WithMaxPresses or a
// cancellable context the search is unbounded and may never return.
//
// With acceleration enabled (the default) the driver first looks for a
// single conjunction gate in front of target and measures how often each of
// its inputs fires. When the inputs are independent and strictly periodic
// the answer is the least common multiple of their periods; otherwise the
// same engine keeps pressing until the real hit.
func (c *Circuit) RunUntilTerminal(ctx context.Context, target string, opts ...RunOption) (int, error) {
	if ctx == nil {
		return 0, ErrNilContext
	}
	id, ok := c.index[target]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrTerminalNotFound, target)
	}

	cfg := newRunConfig(opts)
	run := c.startRun(ctx, &cfg, ledger.ModeUntil)

	e := NewEngine(c, target)
	var tally Tally
	presses, accelerated, err := 0, false, error(nil)

	if cfg.accelerate {
		var scan scanResult
		scan, err = c.scanPeriods(run, e, id, &tally)
		presses, accelerated = scan.presses, scan.accelerated
	}
	if err == nil && presses == 0 {
		presses, err = pressUntilHit(run, e, target, &tally)
	}
	if err != nil {
		return 0, run.fail(err, e.Presses())
	}

	err = run.complete(ledger.Record{
		Target:      target,
		Presses:     presses,
		Low:         tally.Low,
		High:        tally.High,
		Answer:      presses,
		Accelerated: accelerated,
	})
	if err != nil {
		return 0, err
	}
	return presses, nil
}

// pressUntilHit simulates presses on e until its terminal is hit.
func pressUntilHit(run *runScope, e *Engine, target string, tally *Tally) (int, error) {
	maxPresses := run.cfg.maxPresses
	for {
		if maxPresses > 0 && e.Presses() >= maxPresses {
			return 0, &MaxPressesError{Max: maxPresses, Target: target}
		}
		if err := cancelled(run.ctx, e); err != nil {
			return 0, err
		}
		r := e.Press()
		run.press(r, e, tally)
		if r.Hit() {
			return e.Presses(), nil
		}
	}
}

// cancelled returns a *CancellationError if ctx is done.
func cancelled(ctx context.Context, e *Engine) error {
	select {
	case <-ctx.Done():
		return &CancellationError{Presses: e.Presses(), Cause: ctx.Err()}
	default:
		return nil
	}
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.New().String()
	}
	return cfg
}

// runScope carries the observability state of one run.
type runScope struct {
	circuit *Circuit
	cfg     *runConfig
	mode    string
	ctx     context.Context // carries the run span
	span    trace.Span
	start   time.Time
}

func (c *Circuit) startRun(ctx context.Context, cfg *runConfig, mode string) *runScope {
	run := &runScope{
		circuit: c,
		cfg:     cfg,
		mode:    mode,
		ctx:     ctx,
		start:   time.Now(),
	}
	observability.LogRunStart(cfg.logger, cfg.runID, mode)
	if cfg.tracingEnabled {
		run.ctx, run.span = cfg.spans.StartRunSpan(ctx, mode, cfg.runID)
	}
	return run
}

// press records a completed press and folds it into tally.
func (r *runScope) press(rep Report, e *Engine, tally *Tally) {
	tally.Add(rep)
	observability.LogPress(r.cfg.logger, e.Presses(), rep.Low, rep.High, rep.TerminalLow)
	r.cfg.metrics.RecordPress(r.ctx, rep.Low, rep.High, rep.TerminalLow)
}

// fail records a failed run and returns err.
func (r *runScope) fail(err error, presses int) error {
	duration := time.Since(r.start)
	r.cfg.metrics.RecordRun(r.ctx, r.mode, false, presses, duration)
	observability.LogRunError(r.cfg.logger, r.cfg.runID, r.mode, err,
		float64(duration.Milliseconds()), presses)
	r.endSpan(err)
	return err
}

// complete records a successful run and saves rec to the ledger, if any.
// Only a fatal ledger failure turns the run into an error.
func (r *runScope) complete(rec ledger.Record) error {
	duration := time.Since(r.start)

	if r.cfg.ledger != nil {
		rec.RunID = r.cfg.runID
		rec.Mode = r.mode
		rec.Digest = r.circuit.digest
		rec.Duration = duration
		rec.Timestamp = time.Now()
		if err := r.cfg.ledger.Save(rec); err != nil {
			if r.cfg.ledgerFailureFatal {
				return r.fail(&LedgerError{RunID: r.cfg.runID, Err: err}, rec.Presses)
			}
			observability.LogLedgerError(r.cfg.logger, r.cfg.runID, err)
		}
	}

	r.cfg.metrics.RecordRun(r.ctx, r.mode, true, rec.Presses, duration)
	observability.LogRunComplete(r.cfg.logger, r.cfg.runID, r.mode,
		float64(duration.Milliseconds()), rec.Presses, rec.Answer)
	r.endSpan(nil)
	return nil
}

func (r *runScope) endSpan(err error) {
	if r.span != nil {
		r.cfg.spans.EndSpanWithError(r.span, err)
	}
}
