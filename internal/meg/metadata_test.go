package meg

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExceedsArchiveSize(t *testing.T) {
	assert.False(t, exceedsArchiveSize(0))
	assert.False(t, exceedsArchiveSize(HeaderSizeV3))
	assert.True(t, exceedsArchiveSize(-1))

	if strconv.IntSize < 64 {
		// int cannot hold a size past the 32-bit range here
		assert.False(t, exceedsArchiveSize(math.MaxInt32))
		return
	}

	one := 1
	assert.False(t, exceedsArchiveSize(one<<32-1))
	assert.True(t, exceedsArchiveSize(one<<32))
}
