// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/ratelimit"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSlidingWindow_AdmitsUpToLimit(t *testing.T) {
	clk := clock.NewManual(epoch)
	window := ratelimit.NewSlidingWindow(5, time.Minute, clk)

	for i := 0; i < 5; i++ {
		assert.True(t, window.IsAllowed("1.2.3.4"), "request %d", i+1)
		clk.Advance(time.Second)
	}
	assert.False(t, window.IsAllowed("1.2.3.4"))
	assert.Equal(t, 0, window.Remaining("1.2.3.4"))

	// Other keys are independent.
	assert.True(t, window.IsAllowed("5.6.7.8"))
}

func TestSlidingWindow_RetryAfterAndRecovery(t *testing.T) {
	clk := clock.NewManual(epoch)
	window := ratelimit.NewSlidingWindow(2, time.Minute, clk)

	require.True(t, window.IsAllowed("k"))
	clk.Advance(10 * time.Second)
	require.True(t, window.IsAllowed("k"))
	clk.Advance(5 * time.Second)

	decision, err := window.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 45*time.Second, decision.RetryAfter)
	assert.Equal(t, 45*time.Second, window.RetryAfter("k"))

	// The first hit leaves the window just after 60s.
	clk.Advance(45*time.Second + time.Millisecond)
	assert.Equal(t, time.Duration(0), window.RetryAfter("k"))
	assert.Equal(t, 1, window.Remaining("k"))
	assert.True(t, window.IsAllowed("k"))
	assert.False(t, window.IsAllowed("k"))
}

func TestSlidingWindow_NeverExceedsLimitInAnyWindow(t *testing.T) {
	clk := clock.NewManual(epoch)
	const limit = 3
	window := ratelimit.NewSlidingWindow(limit, time.Minute, clk)

	var admitted []time.Time
	for i := 0; i < 400; i++ {
		if window.IsAllowed("k") {
			admitted = append(admitted, clk.Now())
		}
		clk.Advance(700 * time.Millisecond)
	}

	for i := range admitted {
		count := 0
		for j := i; j < len(admitted) && admitted[j].Sub(admitted[i]) <= time.Minute; j++ {
			count++
		}
		assert.LessOrEqual(t, count, limit)
	}
	assert.NotEmpty(t, admitted)
}

func TestSlidingWindow_Prune(t *testing.T) {
	clk := clock.NewManual(epoch)
	window := ratelimit.NewSlidingWindow(10, time.Minute, clk)

	window.IsAllowed("a")
	window.IsAllowed("b")
	clk.Advance(30 * time.Second)
	window.IsAllowed("c")

	clk.Advance(31 * time.Second)
	assert.Equal(t, 2, window.Prune())
	assert.Equal(t, 1, window.Keys())
}

func TestSlidingWindow_Concurrent(t *testing.T) {
	window := ratelimit.NewSlidingWindow(50, time.Minute, clock.NewManual(epoch))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if window.IsAllowed("shared") {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, granted)
}
