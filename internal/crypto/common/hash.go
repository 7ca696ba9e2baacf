package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
)

// Sha512Half returns the first 32 bytes of a sha512 hash of a message.
func Sha512Half(msg []byte) [32]byte {
	h := sha512.Sum512(msg)
	var result [32]byte
	copy(result[:], h[:32])
	return result
}

// Sha256 hashes the concatenation of parts.
func Sha256(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var result [32]byte
	copy(result[:], h.Sum(nil))
	return result
}
