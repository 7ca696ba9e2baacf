package ed25519

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestED25519GenerateKeypair(t *testing.T) {
	provider := NewED25519Provider()

	priv1, addr1, err := provider.GenerateKeypair([]byte("test seed for ed25519"))
	require.NoError(t, err)
	priv2, addr2, err := provider.GenerateKeypair([]byte("test seed for ed25519"))
	require.NoError(t, err)

	require.Equal(t, addr1, addr2, "same seed must produce the same address")
	require.Equal(t, priv1, priv2)

	_, other, err := provider.GenerateKeypair([]byte("another seed"))
	require.NoError(t, err)
	require.NotEqual(t, addr1, other)

	_, _, err = provider.GenerateKeypair(nil)
	require.ErrorIs(t, err, ErrEmptySeed)
}

func TestED25519SignAndVerify(t *testing.T) {
	provider := NewED25519Provider()
	priv, addr, err := provider.GenerateKeypair([]byte("signer"))
	require.NoError(t, err)

	message := []byte("purchase 10 units")
	sig, err := provider.SignMessage(message, priv)
	require.NoError(t, err)

	require.True(t, provider.VerifySignature(message, addr, sig))
	require.False(t, provider.VerifySignature([]byte("purchase 11 units"), addr, sig))
	require.False(t, provider.VerifySignature(message, addr, sig[:10]))

	_, err = provider.SignMessage(message, priv[:5])
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestPrivateKeyHexRoundTrip(t *testing.T) {
	provider := NewED25519Provider()
	priv, _, err := provider.GenerateKeypair([]byte("hex"))
	require.NoError(t, err)

	decoded, err := DecodePrivateKey(EncodePrivateKey(priv))
	require.NoError(t, err)
	require.Equal(t, priv, decoded)

	_, err = DecodePrivateKey("zz")
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
}
