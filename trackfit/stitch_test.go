package trackfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStitchKeys(t *testing.T) {
	a := []HitKey{1, 2}
	b := []HitKey{2, 3}

	got := StitchKeys(a, b)
	assert.Equal(t, []HitKey{1, 2, 2, 3}, got)

	got[0] = 99
	assert.Equal(t, []HitKey{1, 2}, a, "inputs must not be aliased")
	assert.Equal(t, []HitKey{2, 3}, b)

	assert.Equal(t, []HitKey{1, 2}, StitchKeys(a, nil))
	assert.Empty(t, StitchKeys(nil, nil))
}
