package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	c := NewManual(time.Unix(0, 0))

	var fired []string
	c.AfterFunc(5*time.Second, func() { fired = append(fired, "five") })
	c.AfterFunc(3*time.Second, func() { fired = append(fired, "three") })

	c.Advance(2 * time.Second)
	assert.Empty(t, fired)

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{"three", "five"}, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestManual_StoppedTimerDoesNotFire(t *testing.T) {
	c := NewManual(time.Unix(0, 0))

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestManual_CallbackCanScheduleAnother(t *testing.T) {
	c := NewManual(time.Unix(0, 0))

	var at []time.Duration
	c.AfterFunc(time.Second, func() {
		at = append(at, c.Now().Sub(time.Unix(0, 0)))
		c.AfterFunc(time.Second, func() {
			at = append(at, c.Now().Sub(time.Unix(0, 0)))
		})
	})

	c.Advance(3 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, at)
}
