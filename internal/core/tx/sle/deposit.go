package sle

// StorageOverhead is the per-entry byte overhead charged on top of the
// payload size.
const StorageOverhead = 128

// DefaultDepositPerByte matches the deposit rate of the original deployment.
const DefaultDepositPerByte = 6960

// MinimumDeposit is the deposit an entry with a payload of size bytes must
// hold while it exists.
func MinimumDeposit(size int, perByte uint64) uint64 {
	return uint64(StorageOverhead+size) * perByte
}
