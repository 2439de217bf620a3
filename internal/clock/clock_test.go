package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockNow(t *testing.T) {
	assert.False(t, RealClock{}.Now().IsZero())
}

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFake(start)
	assert.True(t, clk.Now().Equal(start))

	clk.Advance(1500 * time.Millisecond)
	assert.True(t, clk.Now().Equal(start.Add(1500*time.Millisecond)))
}
