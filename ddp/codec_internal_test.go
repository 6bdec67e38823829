package ddp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeFirstWordIdempotent covers spec.md §8 "Length
// normalization idempotence": two consecutive normalizations of the
// packed hops/length/pad word are the identity.
func TestNormalizeFirstWordIdempotent(t *testing.T) {
	buf := make([]byte, 2)
	putFirstWord(buf, 7, 400)

	hops1, length1 := normalizeFirstWord(buf)
	putFirstWord(buf, hops1, length1)
	hops2, length2 := normalizeFirstWord(buf)

	assert.Equal(t, hops1, hops2)
	assert.Equal(t, length1, length2)
	assert.EqualValues(t, 7, hops2)
	assert.EqualValues(t, 400, length2)
}
