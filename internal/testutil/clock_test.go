package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	clock := NewDeterministicClock(0)

	assert.Equal(t, int64(0), clock.Ticks())
	assert.Equal(t, time.Duration(0), clock.Elapsed())
	assert.Equal(t, DefaultFrame, clock.Frame())
}

func TestDeterministicClock_NextAdvancesOneFrame(t *testing.T) {
	clock := NewDeterministicClock(10 * time.Millisecond)

	assert.Equal(t, 10*time.Millisecond, clock.Next())
	assert.Equal(t, 10*time.Millisecond, clock.Next())
	assert.Equal(t, int64(2), clock.Ticks())
	assert.Equal(t, 20*time.Millisecond, clock.Elapsed())
}

func TestDeterministicClock_Advance(t *testing.T) {
	clock := NewDeterministicClock(10 * time.Millisecond)

	clock.Next()
	assert.Equal(t, time.Second, clock.Advance(time.Second))

	assert.Equal(t, int64(2), clock.Ticks())
	assert.Equal(t, time.Second+10*time.Millisecond, clock.Elapsed())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock(5 * time.Millisecond)
	clock.Next()
	clock.Next()

	clock.Reset()

	assert.Equal(t, int64(0), clock.Ticks())
	assert.Equal(t, time.Duration(0), clock.Elapsed())
	assert.Equal(t, 5*time.Millisecond, clock.Frame(), "frame survives reset")
}

func TestDeterministicClock_Concurrent(t *testing.T) {
	clock := NewDeterministicClock(time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Next()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1000), clock.Ticks())
	assert.Equal(t, time.Second, clock.Elapsed())
}
