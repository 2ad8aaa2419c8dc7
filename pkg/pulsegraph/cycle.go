package pulsegraph

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/observability"
)

// scanResult is the outcome of a feeder period scan. presses is zero when
// the scan produced no answer and simulation has to continue.
type scanResult struct {
	presses     int
	accelerated bool
}

// periodGate finds the conjunction in front of target and its feeders.
//
// Requirements:
//  1. target has exactly one predecessor, a conjunction with inputs
//  2. nothing downstream of the gate feeds back into a feeder
//  3. feeder sub-networks share no module other than the entry
func (c *Circuit) periodGate(target int) (gate int, feeders []int, err error) {
	preds := c.preds[target]
	if len(preds) != 1 {
		return 0, nil, errNoSingleGate
	}
	gate = preds[0]
	feeders = c.inputs[gate]
	if c.kinds[gate] != Conjunction || len(feeders) == 0 {
		return 0, nil, errNoSingleGate
	}

	downstream := c.reachableFrom(gate)
	for _, f := range feeders {
		if downstream[f] {
			return 0, nil, errGateFeedsBack
		}
	}

	owner := make([]int, len(c.names))
	for i := range owner {
		owner[i] = -1
	}
	for i, f := range feeders {
		for id, up := range c.upstreamOf(f, c.entry) {
			if !up {
				continue
			}
			if owner[id] >= 0 && owner[id] != i {
				return 0, nil, errSharedUpstream
			}
			owner[id] = i
		}
	}
	return gate, feeders, nil
}

// window is where one feeder's High pulse and the Low pulse that follows it
// reach the gate during a press, measured in hops from the button pulse.
// Negative means not seen.
type window struct {
	high, low int
}

// scanPeriods presses e while watching pulses from the gate's feeders.
// Each feeder must fire on every multiple of its first firing press, at the
// same depths every time, and leave the gate's memory Low afterwards. Once
// every feeder has fired twice the answer is the lcm of the periods,
// provided the feeders' High windows overlap so the gate sees all of them
// High at once.
//
// A real terminal hit during the scan is returned as is. When a check fails
// the reason is logged and a zero result is returned; e keeps its state so
// simulation can continue from where the scan stopped.
func (c *Circuit) scanPeriods(run *runScope, e *Engine, target int, tally *Tally) (result scanResult, scanErr error) {
	cfg := run.cfg
	name := c.names[target]

	gate, feeders, err := c.periodGate(target)
	if err != nil {
		run.fallback(run.ctx, name, err, 0)
		return scanResult{}, nil
	}

	ctx, span := cfg.spans.StartScanSpan(run.ctx, name)
	defer func() {
		cfg.spans.EndSpanWithError(span, scanErr)
	}()

	slotOf := make(map[int]int, len(feeders))
	for slot, f := range feeders {
		slotOf[f] = slot
	}
	current := make([]window, len(feeders)) // this press
	windows := make([]window, len(feeders)) // first firing
	unstable := false
	first := make([]int, len(feeders))
	hits := make([]int, len(feeders))
	pending := len(feeders) // feeders that have not fired twice yet

	resetCurrent := func() {
		for slot := range current {
			current[slot] = window{high: -1, low: -1}
		}
	}
	resetCurrent()

	e.observe = func(p queued) {
		if p.to != gate {
			return
		}
		slot, ok := slotOf[p.from]
		if !ok {
			return
		}
		w := &current[slot]
		switch {
		case p.level == High && w.high < 0:
			w.high = p.depth
		case p.level == High:
			unstable = true // fired twice in one press
		case w.high >= 0 && w.low < 0:
			w.low = p.depth
		}
	}
	defer func() { e.observe = nil }()

	var reason error
scan:
	for pending > 0 {
		if e.Presses() >= cfg.scanLimit {
			reason = errScanLimitReached
			break
		}
		if cfg.maxPresses > 0 && e.Presses() >= cfg.maxPresses {
			return scanResult{}, &MaxPressesError{Max: cfg.maxPresses, Target: name}
		}
		if err := cancelled(ctx, e); err != nil {
			return scanResult{}, err
		}

		resetCurrent()
		r := e.Press()
		run.press(r, e, tally)
		press := e.Presses()
		if r.Hit() {
			cfg.metrics.RecordCycleScan(ctx, false, press)
			return scanResult{presses: press}, nil
		}
		if unstable {
			reason = errUnstableWindow
			break
		}

		for slot := range feeders {
			if current[slot].high < 0 {
				continue
			}
			if hits[slot] == 0 {
				first[slot] = press
				windows[slot] = current[slot]
			} else if current[slot] != windows[slot] {
				reason = errUnstableWindow
				break scan
			}
			hits[slot]++
			if press != hits[slot]*first[slot] {
				reason = errAperiodicFeeder
				break scan
			}
			if hits[slot] == 2 {
				pending--
			}
		}
		for _, level := range e.state.remembered(gate) {
			if level != Low {
				reason = errSustainedFeeder
				break scan
			}
		}
	}

	if reason == nil && !windowsOverlap(windows) {
		reason = errDisjointWindows
	}
	if reason != nil {
		run.fallback(ctx, name, reason, e.Presses())
		return scanResult{}, nil
	}

	answer := 1
	periods := make(map[string]int, len(feeders))
	for slot, f := range feeders {
		periods[c.names[f]] = first[slot]
		answer = lcm(answer, first[slot])
	}
	if answer <= e.Presses() {
		run.fallback(ctx, name, errMissedAlignment, e.Presses())
		return scanResult{}, nil
	}
	if cfg.maxPresses > 0 && answer > cfg.maxPresses {
		return scanResult{}, &MaxPressesError{Max: cfg.maxPresses, Target: name}
	}

	observability.LogCycleDetected(cfg.logger, name, c.names[gate], periods, answer)
	cfg.metrics.RecordCycleScan(ctx, true, e.Presses())
	cfg.spans.AddSpanEvent(ctx, "periods detected",
		attribute.String("gate", c.names[gate]),
		attribute.Int("answer", answer),
	)
	return scanResult{presses: answer, accelerated: true}, nil
}

// windowsOverlap reports whether every High lands strictly before any of the
// following Lows. Pulses are delivered in depth order, so the gate then holds
// every input High at once. Equal depths are rejected because their order
// depends on queue position.
func windowsOverlap(windows []window) bool {
	lastHigh, firstLow := -1, -1
	for _, w := range windows {
		if w.low < 0 {
			return false
		}
		if w.high > lastHigh {
			lastHigh = w.high
		}
		if firstLow < 0 || w.low < firstLow {
			firstLow = w.low
		}
	}
	return lastHigh < firstLow
}

// fallback records an abandoned scan.
func (r *runScope) fallback(ctx context.Context, target string, reason error, scanned int) {
	observability.LogCycleFallback(r.cfg.logger, target, reason, scanned)
	r.cfg.metrics.RecordCycleScan(ctx, false, scanned)
	r.cfg.spans.AddSpanEvent(ctx, "period scan abandoned",
		attribute.String("reason", reason.Error()),
		attribute.Int("scanned_presses", scanned),
	)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
