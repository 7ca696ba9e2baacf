package sle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/types"
)

// BalanceSize is asset(32) + owner(32) + amount(8).
const BalanceSize = 72

var (
	ErrBalanceSize     = errors.New("invalid balance record size")
	ErrBalanceOverflow = errors.New("balance overflow")
	ErrBalanceShort    = errors.New("insufficient balance")
)

// BalanceData is the holding of one asset by one owner. The owner is the
// authority allowed to move funds out of it.
type BalanceData struct {
	Asset  types.Address
	Owner  types.Address
	Amount uint64
}

func (b *BalanceData) Encode() []byte {
	out := make([]byte, BalanceSize)
	copy(out[0:32], b.Asset[:])
	copy(out[32:64], b.Owner[:])
	binary.LittleEndian.PutUint64(out[64:72], b.Amount)
	return out
}

func ParseBalance(data []byte) (*BalanceData, error) {
	if len(data) != BalanceSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBalanceSize, len(data))
	}
	b := &BalanceData{}
	copy(b.Asset[:], data[0:32])
	copy(b.Owner[:], data[32:64])
	b.Amount = binary.LittleEndian.Uint64(data[64:72])
	return b, nil
}

// Add credits amount, failing rather than wrapping.
func (b *BalanceData) Add(amount uint64) error {
	if b.Amount > ^uint64(0)-amount {
		return ErrBalanceOverflow
	}
	b.Amount += amount
	return nil
}

// Sub debits amount, failing rather than clamping.
func (b *BalanceData) Sub(amount uint64) error {
	if amount > b.Amount {
		return fmt.Errorf("%w: have %d, need %d", ErrBalanceShort, b.Amount, amount)
	}
	b.Amount -= amount
	return nil
}
