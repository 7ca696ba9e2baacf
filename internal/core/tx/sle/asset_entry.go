package sle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/types"
)

// AssetSize is authority(32) + supply(8) + decimals(1) + has authority(1).
const AssetSize = 42

var ErrAssetSize = errors.New("invalid asset record size")

// AssetData defines a fungible asset.
type AssetData struct {
	MintAuthority    types.Address
	Supply           uint64
	Decimals         uint8
	HasMintAuthority bool
}

func (a *AssetData) Encode() []byte {
	out := make([]byte, AssetSize)
	copy(out[0:32], a.MintAuthority[:])
	binary.LittleEndian.PutUint64(out[32:40], a.Supply)
	out[40] = a.Decimals
	if a.HasMintAuthority {
		out[41] = 1
	}
	return out
}

func ParseAsset(data []byte) (*AssetData, error) {
	if len(data) != AssetSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAssetSize, len(data))
	}
	a := &AssetData{}
	copy(a.MintAuthority[:], data[0:32])
	a.Supply = binary.LittleEndian.Uint64(data[32:40])
	a.Decimals = data[40]
	a.HasMintAuthority = data[41] == 1
	return a, nil
}
