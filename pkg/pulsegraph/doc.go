/*
Package pulsegraph simulates networks of modules exchanging Low/High pulses.

# Overview

A network is a set of named modules, each with an ordered list of
destinations. Pressing the button sends one Low pulse to the entry module
(broadcaster by default); every module that reacts sends one pulse to each
of its destinations. Pulses are delivered strictly in the order they were
sent across the whole network, so the result of a press depends on that
global order and on the history each module has accumulated.

Module kinds:
  - Broadcast (no prefix) forwards whatever it receives
  - FlipFlop (%) ignores High; Low toggles it and it emits its new state
  - Conjunction (&) remembers the last level from each input and emits Low
    only when all of them are High
  - Terminal modules are named as destinations but never declared; they
    absorb pulses

# Basic Usage

Parse a network, then run it:

	circuit, err := pulsegraph.Build([]string{
	    "broadcaster -> a, b, c",
	    "%a -> b",
	    "%b -> c",
	    "%c -> inv",
	    "&inv -> a",
	})
	if err != nil {
	    log.Fatal(err)
	}

	tally, err := circuit.RunFixed(ctx, 1000)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(tally.Product()) // 32000000

Networks can also be built in code:

	network := pulsegraph.NewNetwork().
	    AddModule("broadcaster", pulsegraph.Broadcast, "a").
	    AddModule("a", pulsegraph.FlipFlop, "out")
	circuit, err := network.Compile()

Modules referenced only as destinations ("out" above) become terminals.

# Terminal Search

RunUntilTerminal presses until the named module receives a Low pulse:

	presses, err := circuit.RunUntilTerminal(ctx, "rx",
	    pulsegraph.WithMaxPresses(1_000_000_000))

When the target sits behind a single conjunction whose inputs are fed by
independent sub-networks, each input usually fires on a fixed period. The
search measures those periods and answers with their least common multiple
instead of simulating every press. The shortcut is verified before it is
used; when any check fails the run simply keeps pressing. Disable it with
WithAcceleration(false).

# Engines

Circuit is immutable and safe for concurrent use. Each run builds its own
Engine with fresh state. Engines can also be driven directly:

	engine := pulsegraph.NewEngine(circuit, "rx")
	engine.Observe(func(p pulsegraph.Pulse) {
	    fmt.Printf("%s -%s-> %s\n", p.From, p.Level, p.To)
	})
	report := engine.Press()

An Engine is not safe for concurrent use.

# Cancellation

The context is checked between presses, never inside one. A cancelled run
returns a *CancellationError:

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	_, err := circuit.RunUntilTerminal(ctx, "rx")
	var cancelErr *pulsegraph.CancellationError
	if errors.As(err, &cancelErr) {
	    fmt.Printf("gave up after %d presses\n", cancelErr.Presses)
	}

# Observability

Runs accept logging, metrics, tracing and a result ledger as options:

	store, _ := ledger.NewSQLiteStore("runs.db")
	tally, err := circuit.RunFixed(ctx, 1000,
	    pulsegraph.WithLogger(slog.Default()),
	    pulsegraph.WithMetrics(true),
	    pulsegraph.WithTracing(true),
	    pulsegraph.WithLedger(store))

See the observability and ledger packages for details.
*/
package pulsegraph
