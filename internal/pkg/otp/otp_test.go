package otp

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCode_Shape(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "non-digit in code %q", code)
		}
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}
