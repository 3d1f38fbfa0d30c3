package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeCoalescesOverlappingRanges(t *testing.T) {
	in := []Range{{From: 0, To: 5}, {From: 3, To: 8}, {From: 20, To: 25}}
	out := Merge(in)
	assert.Equal(t, []Range{{From: 0, To: 8}, {From: 20, To: 25}}, out)
}

func TestMergeCoalescesAdjacentRanges(t *testing.T) {
	in := []Range{{From: 0, To: 5}, {From: 5, To: 10}}
	out := Merge(in)
	assert.Equal(t, []Range{{From: 0, To: 10}}, out)
}

func TestMergeLeavesDisjointRangesSeparate(t *testing.T) {
	in := []Range{{From: 10, To: 20}, {From: 0, To: 5}}
	out := Merge(in)
	assert.Equal(t, []Range{{From: 0, To: 5}, {From: 10, To: 20}}, out)
}

func TestMergeSkipsZeroLengthRanges(t *testing.T) {
	in := []Range{{From: 5, To: 5}, {From: 0, To: 3}}
	out := Merge(in)
	assert.Equal(t, []Range{{From: 0, To: 3}}, out)
}

func TestMergeEmptyInput(t *testing.T) {
	assert.Nil(t, Merge(nil))
}

func TestMergeOutputIsDisjointAndCoversUnion(t *testing.T) {
	in := []Range{{From: 0, To: 10}, {From: 5, To: 15}, {From: 100, To: 110}, {From: 12, To: 20}}
	out := Merge(in)
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i-1].To, out[i].From)
	}

	covered := func(ranges []Range, pos int) bool {
		for _, r := range ranges {
			if pos >= r.From && pos < r.To {
				return true
			}
		}
		return false
	}
	for pos := 0; pos < 120; pos++ {
		assert.Equal(t, covered(in, pos), covered(out, pos), "position %d", pos)
	}
}
