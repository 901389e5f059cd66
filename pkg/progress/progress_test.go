package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterAdvance(t *testing.T) {
	c := NewCounter("Downloading", 2)
	assert.False(t, c.Done())
	assert.Equal(t, 0.0, c.Percent())

	c.Advance()
	assert.Equal(t, 1, c.Completed)
	assert.Equal(t, 50.0, c.Percent())

	c.Advance()
	c.Advance()
	assert.Equal(t, 2, c.Completed, "completed never passes total")
	assert.True(t, c.Done())
}

func TestCounterEmpty(t *testing.T) {
	c := NewCounter("Parsing", 0)
	assert.True(t, c.Done())
	assert.Equal(t, 100.0, c.Percent())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_, ok := r.Last()
	assert.False(t, ok)

	c := NewCounter("x", 3)
	r.Start(*c)
	c.Advance()
	r.Update(*c)
	r.Finish(*c)

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, 1, last.Completed)
	assert.Len(t, r.Started, 1)
	assert.Len(t, r.Finished, 1)
}
