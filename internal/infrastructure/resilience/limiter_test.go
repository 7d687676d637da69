package resilience

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiterPerKey(t *testing.T) {
	k := NewKeyedLimiter(1, 2, time.Minute)
	clk := &clock{t: time.Unix(1700000000, 0)}
	k.now = clk.now

	assert.True(t, k.Allow("a"))
	assert.True(t, k.Allow("a"))
	assert.False(t, k.Allow("a"))
	assert.True(t, k.Allow("b"))

	clk.advance(time.Second)
	assert.True(t, k.Allow("a"))
}

func TestKeyedLimiterPrunesIdleKeys(t *testing.T) {
	k := NewKeyedLimiter(1, 1, time.Minute)
	clk := &clock{t: time.Unix(1700000000, 0)}
	k.now = clk.now

	for i := 0; i < pruneAbove; i++ {
		k.Allow(strconv.Itoa(i))
	}
	assert.Equal(t, pruneAbove, k.Len())

	clk.advance(2 * time.Minute)
	k.Allow("fresh")
	assert.Equal(t, 1, k.Len())
}
