package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterner_FirstSeenOrder(t *testing.T) {
	in := NewInterner()

	c0, isNew := in.Intern("b")
	assert.True(t, isNew)
	assert.Equal(t, uint32(0), c0)

	c1, isNew := in.Intern("a")
	assert.True(t, isNew)
	assert.Equal(t, uint32(1), c1)

	c0Again, isNew := in.Intern("b")
	assert.False(t, isNew)
	assert.Equal(t, uint32(0), c0Again)

	assert.Equal(t, []string{"b", "a"}, in.Values())
	assert.Equal(t, 2, in.Len())
}

func TestInterner_Reset(t *testing.T) {
	in := NewInterner()
	in.Intern("x")
	in.Reset()
	assert.Equal(t, 0, in.Len())
	_, ok := in.Lookup("x")
	assert.False(t, ok)
}
