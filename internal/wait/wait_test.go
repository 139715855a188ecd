package wait

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestUntil_ImmediateSuccessDoesNotWait(t *testing.T) {
	t.Parallel()

	start := time.Now()
	ok := Until(context.Background(), time.Second, 100*time.Millisecond, func() bool { return true })
	assert.True(t, ok)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestUntil_PollsUntilConditionHolds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	ok := Until(context.Background(), time.Second, 5*time.Millisecond, func() bool {
		return calls.Add(1) >= 3
	})
	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUntil_TimesOut(t *testing.T) {
	t.Parallel()

	start := time.Now()
	ok := Until(context.Background(), 40*time.Millisecond, 5*time.Millisecond, func() bool { return false })
	elapsed := time.Since(start)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestUntil_ZeroTimeoutChecksOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	ok := Until(context.Background(), 0, time.Millisecond, func() bool {
		calls.Add(1)
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUntil_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := Until(ctx, time.Second, 5*time.Millisecond, func() bool { return false })
	assert.False(t, ok)
}

func testUntil_NeverExceedsBudget(t *rapid.T) {
	timeout := time.Duration(rapid.IntRange(1, 20).Draw(t, "timeoutMS")) * time.Millisecond
	interval := time.Duration(rapid.IntRange(1, 10).Draw(t, "intervalMS")) * time.Millisecond

	start := time.Now()
	Until(context.Background(), timeout, interval, func() bool { return false })
	if elapsed := time.Since(start); elapsed > timeout+200*time.Millisecond {
		t.Fatalf("Until overran its budget: timeout=%s elapsed=%s", timeout, elapsed)
	}
}

func TestUntil_NeverExceedsBudget(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testUntil_NeverExceedsBudget)
}

func TestSleep_ReturnsContextError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Second), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

func TestPacer_SpacesCalls(t *testing.T) {
	t.Parallel()

	p := NewPacer(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	assert.NoError(t, p.Wait(ctx))
	assert.Less(t, time.Since(start), 20*time.Millisecond)
	assert.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPacer_ZeroGapNeverBlocks(t *testing.T) {
	t.Parallel()

	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		assert.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}
