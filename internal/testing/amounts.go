package testing

// Lamport amounts.
const (
	LamportsPerNative = 1_000_000_000

	// DefaultFunding is what Fund credits to each account.
	DefaultFunding = 10 * LamportsPerNative
)

// Units converts whole units to smallest units at the given precision.
func Units(whole uint64, decimals uint8) uint64 {
	out := whole
	for i := uint8(0); i < decimals; i++ {
		out *= 10
	}
	return out
}
