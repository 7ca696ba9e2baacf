package testing

import (
	stded25519 "crypto/ed25519"

	ed25519 "github.com/LeJamon/goListingd/internal/crypto/algorithms/ed25519"
	"github.com/LeJamon/goListingd/internal/types"
)

// Account represents a test identity with its key pair.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Address is the Ed25519 public key.
	Address types.Address

	PrivateKey stded25519.PrivateKey
}

// NewAccount creates an account whose key pair is derived from the name.
// Using the same name will always produce the same account, making tests
// reproducible.
func NewAccount(name string) *Account {
	priv, addr, err := ed25519.NewED25519Provider().GenerateKeypair([]byte("listingd-test:" + name))
	if err != nil {
		panic("failed to derive keypair for account " + name + ": " + err.Error())
	}
	return &Account{Name: name, Address: addr, PrivateKey: priv}
}

func (a *Account) String() string {
	return a.Name + "(" + a.Address.String() + ")"
}

// Asset is an asset defined in a test environment. Its address is itself a
// key pair, which signs the definition.
type Asset struct {
	*Account
	Decimals uint8

	// Issuer paid for the definition and holds the mint authority.
	Issuer *Account
}
