package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testLimits() Limits {
	return Limits{
		RequestsPerMinute: 3,
		RequestsPerHour:   10,
		RequestsPerDay:    20,
		TokensPerMinute:   1000,
		TokensPerHour:     5000,
		TokensPerDay:      10000,
	}
}

func TestReserveWithinBudget(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := newWithClock(testLimits(), true, clock.Now)

	assert.True(t, tr.Reserve(100))
	tr.Record(1, 100)
	assert.True(t, tr.Reserve(100))
}

func TestReserveRequestLimit(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := newWithClock(testLimits(), true, clock.Now)

	for i := 0; i < 3; i++ {
		assert.True(t, tr.Reserve(10))
		tr.Record(1, 10)
	}
	// Minute window is at 3/3 requests
	assert.False(t, tr.Reserve(10))
}

func TestReserveTokenLimit(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := newWithClock(testLimits(), true, clock.Now)

	tr.Record(1, 950)
	assert.True(t, tr.Reserve(50))
	assert.False(t, tr.Reserve(51))
}

func TestReserveDoesNotCount(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := newWithClock(testLimits(), true, clock.Now)

	// Reserving many times without recording must not consume budget.
	for i := 0; i < 100; i++ {
		assert.True(t, tr.Reserve(500))
	}
	usage := tr.Snapshot()
	assert.Equal(t, 0, usage.Windows[0].Requests)
	assert.Equal(t, 0, usage.Windows[0].Tokens)
}

func TestWindowRollover(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := newWithClock(testLimits(), true, clock.Now)

	for i := 0; i < 3; i++ {
		tr.Record(1, 300)
	}
	require.False(t, tr.Reserve(10))

	// A minute later the minute window resets but hour and day keep
	// their counts.
	clock.Advance(61 * time.Second)
	assert.True(t, tr.Reserve(10))

	usage := tr.Snapshot()
	assert.Equal(t, 0, usage.Windows[0].Requests)
	assert.Equal(t, 3, usage.Windows[1].Requests)
	assert.Equal(t, 3, usage.Windows[2].Requests)
	assert.Equal(t, 900, usage.Windows[1].Tokens)
}

func TestHourWindowStillBinds(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := newWithClock(testLimits(), true, clock.Now)

	// Spread 10 requests over several minutes to exhaust the hour
	// window without tripping the minute one.
	for i := 0; i < 10; i++ {
		tr.Record(1, 10)
		clock.Advance(2 * time.Minute)
	}
	assert.False(t, tr.Reserve(10))

	// A day later everything is clear again.
	clock.Advance(25 * time.Hour)
	assert.True(t, tr.Reserve(10))
}

func TestDisabledTracker(t *testing.T) {
	tr := New(Limits{}, false)

	for i := 0; i < 1000; i++ {
		assert.True(t, tr.Reserve(1_000_000))
		tr.Record(1, 1_000_000)
	}
	usage := tr.Snapshot()
	assert.False(t, usage.Enabled)
	assert.Equal(t, 0, usage.Windows[0].Requests)
}

func TestZeroLimitIgnored(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := newWithClock(Limits{TokensPerMinute: 100}, true, clock.Now)

	// No request limits configured: only the token budget binds.
	tr.Record(50, 0)
	assert.True(t, tr.Reserve(100))
	tr.Record(0, 100)
	assert.False(t, tr.Reserve(1))
}

func TestSnapshotPercentClamped(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := newWithClock(testLimits(), true, clock.Now)

	// Record can push counts past the limit; the display percent caps
	// at 100.
	tr.Record(5, 2000)
	usage := tr.Snapshot()
	assert.Equal(t, 100.0, usage.Windows[0].RequestPercent)
	assert.Equal(t, 100.0, usage.Windows[0].TokenPercent)
	assert.Equal(t, 5, usage.Windows[0].Requests)
}
