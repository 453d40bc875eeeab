package num

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func TestMulDiv(t *testing.T) {
	i := func(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

	t.Run("floor", func(t *testing.T) {
		assert.Equal(t, i(33), MulDivFloor(i(100), i(1), i(3)))
		assert.True(t, i(0).Equal(MulDivFloor(i(1), i(1), i(3))))
		assert.Equal(t, i(50), MulDivFloor(i(100), i(5), i(10)))
	})
	t.Run("ceil", func(t *testing.T) {
		assert.Equal(t, i(34), MulDivCeil(i(100), i(1), i(3)))
		assert.Equal(t, i(1), MulDivCeil(i(1), i(1), i(3)))
		assert.Equal(t, i(50), MulDivCeil(i(100), i(5), i(10)))
	})
	t.Run("ceil never below floor", func(t *testing.T) {
		for a := int64(0); a < 50; a++ {
			for d := int64(1); d < 7; d++ {
				fl := MulDivFloor(i(a), i(7), i(d))
				ce := MulDivCeil(i(a), i(7), i(d))
				assert.True(t, ce.GTE(fl))
				assert.True(t, ce.Sub(fl).LTE(i(1)))
			}
		}
	})
	t.Run("large values do not overflow", func(t *testing.T) {
		big, ok := sdkmath.NewIntFromString("123456789012345678901234567890")
		assert.True(t, ok)
		got := MulDivFloor(big, big, big)
		assert.Equal(t, big, got)
	})
}

func TestBpsOf(t *testing.T) {
	i := func(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

	assert.Equal(t, i(10_000), BpsOf(i(100_000), 1000))
	assert.True(t, i(0).Equal(BpsOf(i(9), 1000)))
	assert.Equal(t, i(100_000), BpsOf(i(100_000), BasisPoints))
}
