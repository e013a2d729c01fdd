package memlimit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/htmlrewriter/internal/memlimit"
)

func TestLimiterIncreaseUsage(t *testing.T) {
	l := memlimit.New(100)
	require.NoError(t, l.IncreaseUsage(50))
	require.EqualValues(t, 50, l.Current())

	err := l.IncreaseUsage(51)
	require.Error(t, err)

	var exceeded *memlimit.ExceededError
	require.True(t, errors.As(err, &exceeded))
	require.EqualValues(t, 50, exceeded.Current)
	require.EqualValues(t, 100, exceeded.Max)

	// current must be unchanged after a rejected increase.
	require.EqualValues(t, 50, l.Current())
}

func TestLimiterUnbounded(t *testing.T) {
	l := memlimit.New(0)
	require.NoError(t, l.IncreaseUsage(1<<30))
}

func TestLimiterDecreaseUsage(t *testing.T) {
	l := memlimit.New(100)
	require.NoError(t, l.IncreaseUsage(80))
	l.DecreaseUsage(30)
	require.EqualValues(t, 50, l.Current())

	l.DecreaseUsage(1000)
	require.EqualValues(t, 0, l.Current())
}

func TestBufferLifecycle(t *testing.T) {
	l := memlimit.New(1024)
	b, err := memlimit.NewBuffer(l, 16)
	require.NoError(t, err)
	require.EqualValues(t, 16, l.Current())

	require.NoError(t, b.Append([]byte("hello")))
	require.Equal(t, "hello", string(b.Bytes()))

	require.NoError(t, b.Append([]byte(" world, this is longer than sixteen bytes")))
	require.Greater(t, l.Current(), uint64(16))

	b.ShrinkToLast(5)
	require.Equal(t, "bytes", string(b.Bytes()))

	b.Release()
	require.EqualValues(t, 0, l.Current())
}

func TestBufferMemoryLimitExceeded(t *testing.T) {
	l := memlimit.New(10)
	b, err := memlimit.NewBuffer(l, 0)
	require.NoError(t, err)

	err = b.Append([]byte("this string is way longer than ten bytes"))
	require.Error(t, err)

	var exceeded *memlimit.ExceededError
	require.True(t, errors.As(err, &exceeded))
}
