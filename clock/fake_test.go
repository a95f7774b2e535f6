package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeAfterFunc(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Fake(start)

	var fired []string
	c.AfterFunc(4*time.Second, func() { fired = append(fired, "wheel") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "first") })
	assert.Equal(t, 2, c.Pending())

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{"first"}, fired)
	assert.Equal(t, start.Add(3*time.Second), c.Now())

	c.Advance(time.Second)
	assert.Equal(t, []string{"first", "wheel"}, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFakeStop(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(2 * time.Second)
	assert.False(t, called)
}

func TestFakeCallbackSeesDeadline(t *testing.T) {
	start := time.Unix(100, 0)
	c := Fake(start)
	var seen time.Time
	c.AfterFunc(20*time.Second, func() { seen = c.Now() })

	c.Advance(time.Minute)
	assert.Equal(t, start.Add(20*time.Second), seen)
	assert.Equal(t, start.Add(time.Minute), c.Now())
}

func TestFakeZeroDelayRunsInline(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	called := false
	timer := c.AfterFunc(0, func() { called = true })
	assert.True(t, called)
	assert.False(t, timer.Stop())
}
