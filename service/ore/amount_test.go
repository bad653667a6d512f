package ore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountToFloat(t *testing.T) {
	assert.Equal(t, 1.0, AmountToFloat(uint64(math.Pow10(TokenDecimals))))
	assert.Equal(t, 0.0, AmountToFloat(0))
	assert.Equal(t, 0.5, AmountToFloat(50_000_000_000))
	assert.Equal(t, 1e-11, AmountToFloat(1))
}

func TestAmountToString(t *testing.T) {
	tests := []struct {
		amount   uint64
		expected string
	}{
		{0, "0"},
		{100_000_000_000, "1"},
		{150_000_000_000, "1.5"},
		{123_456_789, "0.00123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, AmountToString(tt.amount))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.50000000000", FormatAmount(150_000_000_000))
}

func TestAmountFromFloat(t *testing.T) {
	assert.Equal(t, uint64(100_000_000_000), AmountFromFloat(1.0))
	assert.Equal(t, uint64(250_000_000_000), AmountFromFloat(2.5))
	assert.Equal(t, uint64(0), AmountFromFloat(0))

	t.Run("truncates sub-unit remainders", func(t *testing.T) {
		assert.Equal(t, uint64(1), AmountFromFloat(1.9e-11))
	})
}

func TestAmountFromFloatV1(t *testing.T) {
	assert.Equal(t, uint64(1_000_000_000), AmountFromFloatV1(1.0))
	assert.Equal(t, uint64(2_500_000_000), AmountFromFloatV1(2.5))
}

func TestAmountRoundTrip(t *testing.T) {
	amounts := []uint64{
		0,
		1,
		7,
		99_999,
		100_000_000_000,
		123_456_789_012,
		1 << 40,
		1<<53 - 1,
		1 << 60,
		math.MaxUint64 / 4,
	}

	for _, amount := range amounts {
		got := AmountFromFloat(AmountToFloat(amount))

		// Up to 2^50 the float error stays below a quarter unit, so only
		// truncation can cost a unit. Beyond that it grows with the value.
		tolerance := uint64(1)
		if amount > 1<<50 {
			tolerance = amount>>50 + 1
		}

		var diff uint64
		if got > amount {
			diff = got - amount
		} else {
			diff = amount - got
		}
		assert.LessOrEqual(t, diff, tolerance, "amount %d round-tripped to %d", amount, got)
	}
}
