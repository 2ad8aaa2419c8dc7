package pulsegraph

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sustainedNetwork: f1 stays on after its first press, holding the gate
// input High. rx first receives Low on press 3.
var sustainedNetwork = []string{
	"broadcaster -> f1, c1",
	"%f1 -> gate",
	"%c1 -> c2",
	"%c2 -> gate",
	"&gate -> rx",
}

func TestPeriodGate(t *testing.T) {
	t.Run("independent feeders", func(t *testing.T) {
		c := mustBuild(t, loopNetwork(3, 5, 7, 11))
		gate, feeders, err := c.periodGate(c.index["rx"])
		require.NoError(t, err)
		assert.Equal(t, "gate", c.names[gate])
		assert.Equal(t, []string{"ai", "bi", "ci", "di"}, c.namesOf(feeders))
	})

	tests := []struct {
		name   string
		lines  []string
		target string
		want   error
	}{
		{"fed by a flip-flop", []string{"broadcaster -> a", "%a -> b", "%b -> rx"}, "rx", errNoSingleGate},
		{"two predecessors", []string{"broadcaster -> a, b", "&a -> rx", "&b -> rx"}, "rx", errNoSingleGate},
		{"gate without inputs", []string{"&hub -> rx"}, "rx", errNoSingleGate},
		{"gate feeds back", []string{
			"broadcaster -> a, b",
			"%a -> gate",
			"%b -> gate",
			"&gate -> rx, a",
		}, "rx", errGateFeedsBack},
		{"shared upstream", twoStage, "output", errSharedUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network, err := ParseLines(tt.lines)
			require.NoError(t, err)
			if !network.HasModule(DefaultEntry) {
				network.SetEntry("hub")
			}
			c, err := network.Compile()
			require.NoError(t, err)

			_, _, err = c.periodGate(c.index[tt.target])
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunUntilTerminal_PeriodsDetected(t *testing.T) {
	c := mustBuild(t, loopNetwork(3, 5, 7, 11))
	h := newTestLogHandler()
	rec := &fakeRecorder{}

	presses, err := c.RunUntilTerminal(context.Background(), "rx",
		WithLogger(slog.New(h)), WithMetricsRecorder(rec))
	require.NoError(t, err)
	assert.Equal(t, 1155, presses)

	record := h.findRecord("feeder periods detected")
	require.NotNil(t, record)
	assert.Equal(t, "rx", record["target"])
	assert.Equal(t, "gate", record["gate"])
	assert.Equal(t, float64(1155), record["answer"])
	assert.Equal(t, map[string]any{
		"ai": float64(3),
		"bi": float64(5),
		"ci": float64(7),
		"di": float64(11),
	}, record["periods"])

	// Every feeder fires twice, so the scan ends on press 22.
	assert.Equal(t, 22, rec.presses)
	assert.Equal(t, []bool{true}, rec.scans)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, fakeRun{mode: "until", success: true, presses: 1155}, rec.runs[0])
	assert.Nil(t, h.findRecord("period scan abandoned, continuing by simulation"))
}

func TestRunUntilTerminal_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		target  string
		opts    []RunOption
		want    int
		reason  error
		scanned int
	}{
		{"no single gate", []string{"broadcaster -> a", "%a -> b", "%b -> rx"}, "rx", nil, 4, errNoSingleGate, 0},
		{"shared upstream", twoStage, "output", nil, 1, errSharedUpstream, 0},
		{"sustained feeder", sustainedNetwork, "rx", nil, 3, errSustainedFeeder, 1},
		{"scan limit", loopNetwork(3, 5, 7, 11), "rx", []RunOption{WithScanLimit(5)}, 1155, errScanLimitReached, 5},
		{"scan limit before the last period repeats", loopNetwork(3, 5, 7, 11), "rx",
			[]RunOption{WithScanLimit(20)}, 1155, errScanLimitReached, 20},
		// The delayed High lands at the same depth as the other feeder's
		// Low; only queue order lets rx see the gate fire.
		{"windows touching at one depth", withRelays(loopNetwork(3, 5), "ai", 2), "rx", nil, 15, errDisjointWindows, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustBuild(t, tt.lines)
			h := newTestLogHandler()
			rec := &fakeRecorder{}

			opts := append([]RunOption{WithLogger(slog.New(h)), WithMetricsRecorder(rec)}, tt.opts...)
			presses, err := c.RunUntilTerminal(context.Background(), tt.target, opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, presses)

			record := h.findRecord("period scan abandoned, continuing by simulation")
			require.NotNil(t, record)
			assert.Equal(t, tt.reason.Error(), record["reason"])
			assert.Equal(t, float64(tt.scanned), record["scanned_presses"])

			// Simulation continues on the scanning engine, so no press repeats.
			assert.Equal(t, tt.want, rec.presses)
			assert.Equal(t, []bool{false}, rec.scans)
		})
	}
}

func TestRunUntilTerminal_DisjointWindows(t *testing.T) {
	// bi's pulses arrive 13 hops late, after ai's window has closed, so the
	// gate never holds both inputs High even though the periods align.
	c := mustBuild(t, withRelays(loopNetwork(3, 5), "bi", 13))
	h := newTestLogHandler()

	_, err := c.RunUntilTerminal(context.Background(), "rx",
		WithLogger(slog.New(h)), WithMaxPresses(2000))
	require.ErrorIs(t, err, ErrMaxPresses)

	record := h.findRecord("period scan abandoned, continuing by simulation")
	require.NotNil(t, record)
	assert.Equal(t, errDisjointWindows.Error(), record["reason"])
	assert.Equal(t, float64(10), record["scanned_presses"])
	assert.Nil(t, h.findRecord("feeder periods detected"))

	_, err = c.RunUntilTerminal(context.Background(), "rx",
		WithAcceleration(false), WithMaxPresses(2000))
	assert.ErrorIs(t, err, ErrMaxPresses)
}

func TestWindowsOverlap(t *testing.T) {
	tests := []struct {
		name    string
		windows []window
		want    bool
	}{
		{"same depths", []window{{4, 6}, {4, 6}}, true},
		{"staggered but overlapping", []window{{5, 7}, {4, 6}}, true},
		{"touching", []window{{6, 8}, {4, 6}}, false},
		{"disjoint", []window{{17, 19}, {4, 6}}, false},
		{"no low seen", []window{{4, -1}, {4, 6}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, windowsOverlap(tt.windows))
		})
	}
}

func TestRunUntilTerminal_HitDuringScan(t *testing.T) {
	c := mustBuild(t, []string{
		"broadcaster -> f",
		"%f -> gate",
		"&gate -> rx",
	})
	h := newTestLogHandler()
	rec := &fakeRecorder{}

	presses, err := c.RunUntilTerminal(context.Background(), "rx",
		WithLogger(slog.New(h)), WithMetricsRecorder(rec))
	require.NoError(t, err)
	assert.Equal(t, 1, presses)
	assert.Equal(t, []bool{false}, rec.scans)
	assert.Nil(t, h.findRecord("feeder periods detected"))
	assert.Nil(t, h.findRecord("period scan abandoned, continuing by simulation"))
}

func TestRunUntilTerminal_AcceleratedMatchesSimulation(t *testing.T) {
	for _, periods := range [][]int{
		{3, 5},
		{7, 9},
		{5, 7, 9},
		{3, 3},
		{15, 21},
	} {
		c := mustBuild(t, loopNetwork(periods...))

		fast, err := c.RunUntilTerminal(context.Background(), "rx")
		require.NoError(t, err)
		slow, err := c.RunUntilTerminal(context.Background(), "rx", WithAcceleration(false))
		require.NoError(t, err)

		want := 1
		for _, p := range periods {
			want = lcm(want, p)
		}
		assert.Equal(t, want, fast, "periods %v", periods)
		assert.Equal(t, slow, fast, "periods %v", periods)
	}

	// One relay hop still leaves the windows overlapping.
	c := mustBuild(t, withRelays(loopNetwork(3, 5), "ai", 1))
	h := newTestLogHandler()
	fast, err := c.RunUntilTerminal(context.Background(), "rx", WithLogger(slog.New(h)))
	require.NoError(t, err)
	slow, err := c.RunUntilTerminal(context.Background(), "rx", WithAcceleration(false))
	require.NoError(t, err)
	assert.Equal(t, 15, fast)
	assert.Equal(t, slow, fast)
	assert.NotNil(t, h.findRecord("feeder periods detected"))
}

func TestGCDAndLCM(t *testing.T) {
	assert.Equal(t, 1, gcd(3, 5))
	assert.Equal(t, 6, gcd(12, 18))
	assert.Equal(t, 7, gcd(7, 0))

	assert.Equal(t, 15, lcm(3, 5))
	assert.Equal(t, 36, lcm(12, 18))
	assert.Equal(t, 1155, lcm(lcm(lcm(3, 5), 7), 11))
	assert.Equal(t, 3, lcm(1, 3))
}
