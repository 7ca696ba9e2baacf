package sle

import "github.com/LeJamon/goListingd/internal/core/ledger/keylet"

// Reader looks entries up by keylet. An absent entry reads as nil data
// with a nil error.
type Reader interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
}

// LedgerView is the state an instruction runs against. Insert fails on an
// occupied key and Update on an absent one.
type LedgerView interface {
	Reader
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
}
