package listing

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// MaxDecimals is the largest sell-asset precision whose power of ten fits
// the 128-bit intermediate domain.
const MaxDecimals = 38

// ErrPriceOverflow is returned when a cost cannot be represented.
var ErrPriceOverflow = errors.New("price computation overflow")

// TotalCost returns floor(pricePerUnit * amount / 10^decimals): the cost in
// buy-asset smallest units of amount smallest units of a sell asset with the
// given precision, priced per whole unit. It never truncates to fit a u64.
func TotalCost(pricePerUnit, amount uint64, decimals uint8) (uint64, error) {
	if decimals > MaxDecimals {
		return 0, fmt.Errorf("%w: %d decimals", ErrPriceOverflow, decimals)
	}

	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(pricePerUnit), uint256.NewInt(amount))
	if overflow || product.BitLen() > 128 {
		return 0, fmt.Errorf("%w: %d * %d", ErrPriceOverflow, pricePerUnit, amount)
	}

	divisor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	cost := new(uint256.Int).Div(product, divisor)
	if !cost.IsUint64() {
		return 0, fmt.Errorf("%w: cost %s exceeds u64", ErrPriceOverflow, cost.Dec())
	}
	return cost.Uint64(), nil
}
