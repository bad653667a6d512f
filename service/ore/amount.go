package ore

import (
	"math"
	"strconv"
)

// Amount conversion between on-chain base units and decimal ORE.
//
// These conversions go through float64 and are lossy: AmountFromFloat(AmountToFloat(u))
// may differ from u by one base unit once u exceeds 2^53. Conversions to base
// units truncate toward zero, and negative, NaN, or out of range inputs follow
// Go's float-to-uint64 conversion rules. Callers needing exact arithmetic
// should stay in base units.

var (
	unitsPerOre   = math.Pow10(TokenDecimals)
	unitsPerOreV1 = math.Pow10(TokenDecimalsV1)
)

// AmountToString formats a base-unit amount as a decimal ORE string using the
// shortest representation that round-trips the float value.
func AmountToString(amount uint64) string {
	return strconv.FormatFloat(AmountToFloat(amount), 'f', -1, 64)
}

// AmountToFloat converts base units to decimal ORE.
func AmountToFloat(amount uint64) float64 {
	return float64(amount) / unitsPerOre
}

// AmountFromFloat converts decimal ORE to base units, truncating.
func AmountFromFloat(amount float64) uint64 {
	return uint64(amount * unitsPerOre)
}

// AmountFromFloatV1 converts decimal ORE to base units at the v1 token
// precision. It is never chosen implicitly.
func AmountFromFloatV1(amount float64) uint64 {
	return uint64(amount * unitsPerOreV1)
}

// FormatAmount renders base units with the full TokenDecimals fraction digits,
// for tabular display.
func FormatAmount(amount uint64) string {
	return strconv.FormatFloat(AmountToFloat(amount), 'f', TokenDecimals, 64)
}
