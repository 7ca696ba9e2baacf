package tx

import (
	stded25519 "crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/crypto/algorithms/ed25519"
	"github.com/LeJamon/goListingd/internal/types"
)

func keypair(t *testing.T, name string) (stded25519.PrivateKey, types.Address) {
	t.Helper()
	priv, pub, err := ed25519.NewED25519Provider().GenerateKeypair([]byte(name))
	require.NoError(t, err)
	return priv, pub
}

func TestEnvelopeSignAndVerify(t *testing.T) {
	priv, alice := keypair(t, "alice")
	_, bob := keypair(t, "bob")

	env := NewEnvelope(&payInstr{From: alice, To: bob, Amount: 7}, 1)
	require.NoError(t, env.Sign(types.DefaultMarketplaceID, priv))

	signers, result := env.VerifySignatures(types.DefaultMarketplaceID)
	require.Equal(t, TesSUCCESS, result)
	assert.True(t, signers.IsSigner(alice))
	assert.False(t, signers.IsSigner(bob))
}

func TestEnvelopeSignRejectsUndeclaredKey(t *testing.T) {
	_, alice := keypair(t, "alice")
	bobPriv, bob := keypair(t, "bob")

	env := NewEnvelope(&payInstr{From: alice, To: bob, Amount: 7}, 1)
	assert.ErrorIs(t, env.Sign(types.DefaultMarketplaceID, bobPriv), ErrNotSigner)

	_, result := env.VerifySignatures(types.DefaultMarketplaceID)
	assert.Equal(t, TefMISSING_SIGNER, result)
}

func TestEnvelopeTamperingBreaksSignature(t *testing.T) {
	priv, alice := keypair(t, "alice")
	_, bob := keypair(t, "bob")

	instr := &payInstr{From: alice, To: bob, Amount: 7}
	env := NewEnvelope(instr, 1)
	require.NoError(t, env.Sign(types.DefaultMarketplaceID, priv))

	instr.Amount = 700
	_, result := env.VerifySignatures(types.DefaultMarketplaceID)
	assert.Equal(t, TemBAD_SIGNATURE, result)
}

func TestEnvelopeBoundToMarketplace(t *testing.T) {
	priv, alice := keypair(t, "alice")
	_, bob := keypair(t, "bob")

	env := NewEnvelope(&payInstr{From: alice, To: bob, Amount: 7}, 1)
	require.NoError(t, env.Sign(types.DefaultMarketplaceID, priv))

	other := addr(0xEE)
	_, result := env.VerifySignatures(other)
	assert.Equal(t, TemBAD_SIGNATURE, result)

	h1, err := env.Hash(types.DefaultMarketplaceID)
	require.NoError(t, err)
	env.Nonce = 2
	h2, err := env.Hash(types.DefaultMarketplaceID)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestInstructionEncodingIsDeterministic(t *testing.T) {
	instr := &payInstr{From: addr(1), To: addr(2), Amount: 3}
	a, err := EncodeInstruction(instr)
	require.NoError(t, err)
	b, err := EncodeInstruction(instr)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var decoded payInstr
	require.NoError(t, DecodeInstruction(a, &decoded))
	assert.Equal(t, *instr, decoded)
}
