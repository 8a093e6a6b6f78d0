package sizing

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []int64
		want   int64
		ok     bool
	}{
		{"empty", nil, 0, true},
		{"values", []int64{1, 2, 3}, 6, true},
		{"max", []int64{math.MaxInt64, 0}, math.MaxInt64, true},
		{"overflow", []int64{math.MaxInt64, 1}, 0, false},
		{"negative", []int64{5, -1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := SumInt64(tt.values...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadExact(t *testing.T) {
	t.Parallel()

	short := errors.New("short")
	long := errors.New("long")

	got, err := ReadExact(strings.NewReader("abcd"), 4, short, long)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), got)

	_, err = ReadExact(strings.NewReader("abc"), 4, short, long)
	assert.ErrorIs(t, err, short)

	_, err = ReadExact(strings.NewReader("abcde"), 4, short, long)
	assert.ErrorIs(t, err, long)
}
