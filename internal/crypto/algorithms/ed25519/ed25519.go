package ed25519

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strings"

	crypto "github.com/LeJamon/goListingd/internal/crypto/common"
	"github.com/LeJamon/goListingd/internal/types"
)

// ED25519SignatureProvider implements the signing operations behind wallet
// identities. A wallet address is its raw 32-byte public key.
type ED25519SignatureProvider struct{}

var (
	ErrEmptySeed         = errors.New("seed must not be empty")
	ErrInvalidPrivateKey = errors.New("invalid private key format")
	ErrInvalidSignature  = errors.New("invalid signature format")
)

func NewED25519Provider() *ED25519SignatureProvider {
	return &ED25519SignatureProvider{}
}

// GenerateKeypair derives a keypair deterministically from seed.
func (p *ED25519SignatureProvider) GenerateKeypair(seed []byte) (ed25519.PrivateKey, types.Address, error) {
	if len(seed) == 0 {
		return nil, types.Address{}, ErrEmptySeed
	}

	keyMaterial := crypto.Sha512Half(seed)
	pubKey, privKey, err := ed25519.GenerateKey(bytes.NewBuffer(keyMaterial[:]))
	if err != nil {
		return nil, types.Address{}, err
	}

	var addr types.Address
	copy(addr[:], pubKey)
	return privKey, addr, nil
}

func (p *ED25519SignatureProvider) SignMessage(message []byte, privateKey ed25519.PrivateKey) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	return ed25519.Sign(privateKey, message), nil
}

func (p *ED25519SignatureProvider) VerifySignature(message []byte, signer types.Address, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(signer[:]), message, signature)
}

// EncodePrivateKey returns the upper-case hex of the key's 32-byte seed.
func EncodePrivateKey(key ed25519.PrivateKey) string {
	return strings.ToUpper(hex.EncodeToString(key.Seed()))
}

// DecodePrivateKey is the inverse of EncodePrivateKey.
func DecodePrivateKey(s string) (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != ed25519.SeedSize {
		return nil, ErrInvalidPrivateKey
	}
	return ed25519.NewKeyFromSeed(raw), nil
}
