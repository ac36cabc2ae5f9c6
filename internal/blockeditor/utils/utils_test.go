package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSets(t *testing.T) {
	set := SliceToSet([]string{"li", "input", "li"})
	assert.Len(t, set, 2)
	assert.True(t, CheckInSet(set, "p", "input"))
	assert.False(t, CheckInSet(set, "p"))
	assert.False(t, CheckInSet(set))
}

func TestSequences(t *testing.T) {
	even := Collect(Filter(All([]int{1, 2, 3, 4, 5, 6}), func(i int) bool { return i%2 == 0 }))
	assert.Equal(t, []int{2, 4, 6}, even)

	assert.Nil(t, Collect(Filter(All([]int{1, 3}), func(i int) bool { return i%2 == 0 })))
	assert.Equal(t, []string{"1", "22"}, SliceToSlice([]int{1, 22}, strconv.Itoa))
}

func TestUniqueName(t *testing.T) {
	t.Run("free", func(t *testing.T) {
		assert.Equal(t, "intro", UniqueName("intro", nil))
	})

	t.Run("taken", func(t *testing.T) {
		taken := SliceToSet([]string{"intro", "intro-2"})
		assert.Equal(t, "intro-3", UniqueName("intro", taken))
	})
}
