package random

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededSourceRepeats(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.IntN(360), b.IntN(360))
	}
}

func TestSequenceWraps(t *testing.T) {
	s := NewSequence(7, -1)
	assert.Equal(t, 2, s.IntN(5))
	assert.Equal(t, 4, s.IntN(5))
	assert.Equal(t, 2, s.IntN(5))
}

func TestCode(t *testing.T) {
	code := Code(New(1), 9)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{9}$`), code)
}
