package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerVecAlwaysActiveNeverDeactivates(t *testing.T) {
	var v HandlerVec[func() int]
	calls := 0
	v.Push(func() int { calls++; return calls }, true, ActionNone)

	require.True(t, v.HasActive())
	v.CallActiveHandlers(func(h func() int) { h() })
	require.True(t, v.HasActive())
	v.CallActiveHandlers(func(h func() int) { h() })
	require.Equal(t, 2, calls)
}

func TestHandlerVecDeactivateFiresOnceUntilReactivated(t *testing.T) {
	var v HandlerVec[func()]
	calls := 0
	idx := v.Push(func() { calls++ }, false, ActionDeactivate)

	require.False(t, v.HasActive())
	v.IncUserCount(idx)
	require.True(t, v.HasActive())

	v.CallActiveHandlers(func(h func()) { h() })
	require.Equal(t, 1, calls)
	require.False(t, v.HasActive())

	v.CallActiveHandlers(func(h func()) { h() })
	require.Equal(t, 1, calls, "deactivated slot must not fire again without a new IncUserCount")

	v.IncUserCount(idx)
	v.CallActiveHandlers(func(h func()) { h() })
	require.Equal(t, 2, calls)
}

func TestHandlerVecRemoveDropsSlotPermanently(t *testing.T) {
	var v HandlerVec[func()]
	calls := 0
	idx := v.Push(func() { calls++ }, false, ActionRemove)
	v.IncUserCount(idx)

	v.CallActiveHandlers(func(h func()) { h() })
	require.Equal(t, 1, calls)
	require.False(t, v.HasActive())

	// A caller that (incorrectly) re-activates a removed slot must not
	// resurrect it.
	v.IncUserCount(idx)
	v.CallActiveHandlers(func(h func()) { h() })
	require.Equal(t, 1, calls)
}

func TestHandlerVecCallsEveryActiveSlotAndIndependentSlots(t *testing.T) {
	var v HandlerVec[func()]
	var order []int
	idx0 := v.Push(func() { order = append(order, 0) }, false, ActionNone)
	idx1 := v.Push(func() { order = append(order, 1) }, false, ActionNone)
	v.IncUserCount(idx0)
	v.IncUserCount(idx1)

	v.CallActiveHandlers(func(h func()) { h() })
	require.ElementsMatch(t, []int{0, 1}, order)

	v.DecUserCount(idx0)
	order = nil
	v.CallActiveHandlers(func(h func()) { h() })
	require.Equal(t, []int{1}, order)
}
