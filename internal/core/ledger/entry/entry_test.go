package entry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeStringRoundTrip(t *testing.T) {
	for _, typ := range []Type{TypeWallet, TypeAsset, TypeBalance, TypeListing} {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}

	require.Equal(t, "Unknown(0x99)", Type(0x99).String())
	_, err := ParseType("Escrow")
	require.Error(t, err)
}
