package pulsegraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/bits"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Test networks used across tests

// counterLoop: every press is 8 low and 4 high pulses.
var counterLoop = []string{
	"broadcaster -> a, b, c",
	"%a -> b",
	"%b -> c",
	"%c -> inv",
	"&inv -> a",
}

// twoStage: the state repeats every 4 presses; output is a terminal.
var twoStage = []string{
	"broadcaster -> a",
	"%a -> inv, con",
	"&inv -> b",
	"%b -> con",
	"&con -> output",
}

// mustBuild parses and compiles lines, failing the test on error.
func mustBuild(t *testing.T, lines []string) *Circuit {
	t.Helper()
	c, err := Build(lines)
	require.NoError(t, err)
	return c
}

// loopNetwork builds one resetting binary counter per period, each firing
// its inverter into a shared gate in front of rx. Periods must be odd.
//
// For a period p with k bits, flip-flops x0..x{k-1} count presses; the
// conjunction xc watches the bits set in p and, when they are all on, fires
// the inverter xi and resets the counter to zero. rx first receives Low on
// the lcm of the periods.
func loopNetwork(periods ...int) []string {
	var entries, lines []string
	for i, p := range periods {
		x := string(rune('a' + i))
		k := bits.Len(uint(p))
		entries = append(entries, x+"0")

		var zeros []string
		for j := 0; j < k; j++ {
			var dests []string
			if j < k-1 {
				dests = append(dests, fmt.Sprintf("%s%d", x, j+1))
			}
			if p&(1<<j) != 0 {
				dests = append(dests, x+"c")
			} else {
				zeros = append(zeros, fmt.Sprintf("%s%d", x, j))
			}
			lines = append(lines, fmt.Sprintf("%%%s%d -> %s", x, j, strings.Join(dests, ", ")))
		}

		resets := append(append([]string{x + "i"}, zeros...), x+"0")
		lines = append(lines,
			fmt.Sprintf("&%sc -> %s", x, strings.Join(resets, ", ")),
			fmt.Sprintf("&%si -> gate", x),
		)
	}
	lines = append([]string{"broadcaster -> " + strings.Join(entries, ", ")}, lines...)
	return append(lines, "&gate -> rx")
}

// withRelays reroutes feeder's edge into the gate through a chain of hops
// broadcast relays, delaying its pulses by that many hops.
func withRelays(lines []string, feeder string, hops int) []string {
	out := make([]string, 0, len(lines)+hops)
	for _, line := range lines {
		if line == "&"+feeder+" -> gate" {
			line = fmt.Sprintf("&%s -> %sr0", feeder, feeder)
		}
		out = append(out, line)
	}
	for i := 0; i < hops-1; i++ {
		out = append(out, fmt.Sprintf("%sr%d -> %sr%d", feeder, i, feeder, i+1))
	}
	return append(out, fmt.Sprintf("%sr%d -> gate", feeder, hops-1))
}

// testLogHandler captures log records for testing.
type testLogHandler struct {
	buf   *bytes.Buffer
	level slog.Level
}

func newTestLogHandler() *testLogHandler {
	return &testLogHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelInfo,
	}
}

func (h *testLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testLogHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *testLogHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *testLogHandler) getRecords() []map[string]any {
	var records []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) > 0 {
			var m map[string]any
			if err := json.Unmarshal(line, &m); err == nil {
				records = append(records, m)
			}
		}
	}
	return records
}

// findRecord returns the first record with msg, or nil.
func (h *testLogHandler) findRecord(msg string) map[string]any {
	for _, r := range h.getRecords() {
		if r["msg"] == msg {
			return r
		}
	}
	return nil
}

// fakeRecorder counts metrics calls.
type fakeRecorder struct {
	presses     int
	low, high   int
	terminalLow int
	runs        []fakeRun
	scans       []bool
}

type fakeRun struct {
	mode    string
	success bool
	presses int
}

func (f *fakeRecorder) RecordPress(_ context.Context, low, high, terminalLow int) {
	f.presses++
	f.low += low
	f.high += high
	f.terminalLow += terminalLow
}

func (f *fakeRecorder) RecordRun(_ context.Context, mode string, success bool, presses int, _ time.Duration) {
	f.runs = append(f.runs, fakeRun{mode: mode, success: success, presses: presses})
}

func (f *fakeRecorder) RecordCycleScan(_ context.Context, accelerated bool, _ int) {
	f.scans = append(f.scans, accelerated)
}
