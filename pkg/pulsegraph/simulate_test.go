package pulsegraph

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/ledger"
)

func TestRunFixed(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		presses int
		want    Tally
		product int
	}{
		{"counter loop single press", counterLoop, 1, Tally{Presses: 1, Low: 8, High: 4}, 32},
		{"counter loop", counterLoop, 1000, Tally{Presses: 1000, Low: 8000, High: 4000}, 32000000},
		{"two stage", twoStage, 1000, Tally{Presses: 1000, Low: 4250, High: 2750}, 11687500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally, err := mustBuild(t, tt.lines).RunFixed(context.Background(), tt.presses)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tally)
			assert.Equal(t, tt.product, tally.Product())
		})
	}
}

func TestRunFixed_FreshStatePerRun(t *testing.T) {
	c := mustBuild(t, twoStage)
	first, err := c.RunFixed(context.Background(), 3)
	require.NoError(t, err)
	second, err := c.RunFixed(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunFixed_ConcurrentRuns(t *testing.T) {
	c := mustBuild(t, twoStage)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tally, err := c.RunFixed(context.Background(), 1000)
			assert.NoError(t, err)
			results[i] = tally.Product()
		}(i)
	}
	wg.Wait()

	for _, product := range results {
		assert.Equal(t, 11687500, product)
	}
}

func TestRunFixed_Errors(t *testing.T) {
	c := mustBuild(t, counterLoop)

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // testing nil context handling
		_, err := c.RunFixed(nil, 1)
		assert.ErrorIs(t, err, ErrNilContext)
	})

	t.Run("non-positive presses", func(t *testing.T) {
		_, err := c.RunFixed(context.Background(), 0)
		assert.ErrorIs(t, err, ErrInvalidPressCount)
		_, err = c.RunFixed(context.Background(), -5)
		assert.ErrorIs(t, err, ErrInvalidPressCount)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.RunFixed(ctx, 1000)
		var cancelErr *CancellationError
		require.ErrorAs(t, err, &cancelErr)
		assert.Equal(t, 0, cancelErr.Presses)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunUntilTerminal(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		target string
		want   int
	}{
		{"flip-flop chain", []string{"broadcaster -> a", "%a -> b", "%b -> rx"}, "rx", 4},
		{"two stage output", twoStage, "output", 1},
		{"sustained feeder", []string{
			"broadcaster -> f1, c1",
			"%f1 -> gate",
			"%c1 -> c2",
			"%c2 -> gate",
			"&gate -> rx",
		}, "rx", 3},
		{"four loops", loopNetwork(3, 5, 7, 11), "rx", 1155},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustBuild(t, tt.lines)

			accelerated, err := c.RunUntilTerminal(context.Background(), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, accelerated)

			naive, err := c.RunUntilTerminal(context.Background(), tt.target, WithAcceleration(false))
			require.NoError(t, err)
			assert.Equal(t, tt.want, naive)
		})
	}
}

func TestRunUntilTerminal_Errors(t *testing.T) {
	c := mustBuild(t, loopNetwork(3, 5, 7, 11))

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // testing nil context handling
		_, err := c.RunUntilTerminal(nil, "rx")
		assert.ErrorIs(t, err, ErrNilContext)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := c.RunUntilTerminal(context.Background(), "nowhere")
		assert.ErrorIs(t, err, ErrTerminalNotFound)
	})

	t.Run("max presses while simulating", func(t *testing.T) {
		_, err := c.RunUntilTerminal(context.Background(), "rx",
			WithAcceleration(false), WithMaxPresses(100))
		var maxErr *MaxPressesError
		require.ErrorAs(t, err, &maxErr)
		assert.Equal(t, 100, maxErr.Max)
		assert.Equal(t, "rx", maxErr.Target)
		assert.ErrorIs(t, err, ErrMaxPresses)
	})

	t.Run("max presses below the detected answer", func(t *testing.T) {
		_, err := c.RunUntilTerminal(context.Background(), "rx", WithMaxPresses(100))
		assert.ErrorIs(t, err, ErrMaxPresses)
	})

	t.Run("max presses during the scan", func(t *testing.T) {
		_, err := c.RunUntilTerminal(context.Background(), "rx", WithMaxPresses(10))
		assert.ErrorIs(t, err, ErrMaxPresses)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		for _, accelerate := range []bool{true, false} {
			_, err := c.RunUntilTerminal(ctx, "rx", WithAcceleration(accelerate))
			var cancelErr *CancellationError
			require.ErrorAs(t, err, &cancelErr)
			assert.ErrorIs(t, err, context.Canceled)
		}
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		_, err := c.RunUntilTerminal(ctx, "rx", WithAcceleration(false))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRunUntilTerminal_ZeroInputEntry(t *testing.T) {
	c, err := NewNetwork().
		AddModule("hub", Conjunction, "out").
		SetEntry("hub").
		Compile()
	require.NoError(t, err)

	presses, err := c.RunUntilTerminal(context.Background(), "out")
	require.NoError(t, err)
	assert.Equal(t, 1, presses)
}

func TestRun_Ledger(t *testing.T) {
	c := mustBuild(t, loopNetwork(3, 5, 7, 11))
	store := ledger.NewMemoryStore()

	tally, err := c.RunFixed(context.Background(), 1000,
		WithLedger(store), WithRunID("fixed-run"))
	require.NoError(t, err)

	presses, err := c.RunUntilTerminal(context.Background(), "rx",
		WithLedger(store), WithRunID("until-run"))
	require.NoError(t, err)

	fixed, err := store.Load("fixed-run")
	require.NoError(t, err)
	assert.Equal(t, ledger.ModeFixed, fixed.Mode)
	assert.Equal(t, c.Digest(), fixed.Digest)
	assert.Equal(t, 1000, fixed.Presses)
	assert.Equal(t, tally.Low, fixed.Low)
	assert.Equal(t, tally.High, fixed.High)
	assert.Equal(t, tally.Product(), fixed.Answer)
	assert.False(t, fixed.Timestamp.IsZero())

	until, err := store.Load("until-run")
	require.NoError(t, err)
	assert.Equal(t, ledger.ModeUntil, until.Mode)
	assert.Equal(t, "rx", until.Target)
	assert.Equal(t, presses, until.Presses)
	assert.Equal(t, presses, until.Answer)
	assert.True(t, until.Accelerated)

	records, err := store.List(c.Digest())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRun_LedgerNotAcceleratedOnRealHit(t *testing.T) {
	c := mustBuild(t, []string{
		"broadcaster -> f",
		"%f -> gate",
		"&gate -> rx",
	})
	store := ledger.NewMemoryStore()

	presses, err := c.RunUntilTerminal(context.Background(), "rx",
		WithLedger(store), WithRunID("hit"))
	require.NoError(t, err)
	assert.Equal(t, 1, presses)

	rec, err := store.Load("hit")
	require.NoError(t, err)
	assert.False(t, rec.Accelerated, "the scan saw the real hit")
}

// failingStore fails every write.
type failingStore struct {
	*ledger.MemoryStore
}

var errDiskFull = errors.New("disk full")

func (failingStore) Save(ledger.Record) error {
	return errDiskFull
}

func TestRun_LedgerFailure(t *testing.T) {
	c := mustBuild(t, counterLoop)
	store := failingStore{ledger.NewMemoryStore()}

	t.Run("logged by default", func(t *testing.T) {
		h := newTestLogHandler()
		tally, err := c.RunFixed(context.Background(), 10,
			WithLedger(store), WithLogger(slog.New(h)))
		require.NoError(t, err)
		assert.Equal(t, 10, tally.Presses)

		record := h.findRecord("ledger write failed")
		require.NotNil(t, record)
		assert.Equal(t, "disk full", record["error"])
	})

	t.Run("fatal when requested", func(t *testing.T) {
		_, err := c.RunFixed(context.Background(), 10,
			WithLedger(store), WithLedgerFailureFatal(true), WithRunID("r1"))
		var ledgerErr *LedgerError
		require.ErrorAs(t, err, &ledgerErr)
		assert.Equal(t, "r1", ledgerErr.RunID)
		assert.ErrorIs(t, err, errDiskFull)
	})
}
