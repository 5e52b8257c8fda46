package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInt64Slice(t *testing.T) {
	s, cleanup := GetInt64Slice(10)
	defer cleanup()
	assert.Len(t, s, 10)
}

func TestGetFloat64Slice(t *testing.T) {
	s, cleanup := GetFloat64Slice(5)
	defer cleanup()
	assert.Len(t, s, 5)
}

func TestGetStringSlice(t *testing.T) {
	s, cleanup := GetStringSlice(3)
	defer cleanup()
	assert.Len(t, s, 3)
}
