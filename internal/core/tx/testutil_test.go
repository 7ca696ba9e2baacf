package tx

import (
	"errors"
	"sync"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

// memView is an in-memory View.
type memView struct {
	mu      sync.RWMutex
	entries map[[32]byte][]byte
	commits int
	failing bool
}

func newMemView() *memView {
	return &memView{entries: make(map[[32]byte][]byte)}
}

func (m *memView) Read(k keylet.Keylet) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[k.Key], nil
}

func (m *memView) Exists(k keylet.Keylet) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[k.Key]
	return ok, nil
}

func (m *memView) Insert(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[k.Key] = data
	return nil
}

func (m *memView) Update(k keylet.Keylet, data []byte) error {
	return m.Insert(k, data)
}

func (m *memView) Erase(k keylet.Keylet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, k.Key)
	return nil
}

func (m *memView) ForEach(fn func(key [32]byte, data []byte) bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.entries {
		if !fn(k, v) {
			break
		}
	}
	return nil
}

func (m *memView) Commit(changes []StateChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("disk full")
	}
	for _, c := range changes {
		if c.Delete {
			delete(m.entries, c.Key)
		} else {
			m.entries[c.Key] = c.Data
		}
	}
	m.commits++
	return nil
}

func (m *memView) lamports(addr types.Address) uint64 {
	n, _ := sle.WalletLamports(m, addr)
	return n
}

// payInstr moves lamports between two wallets.
type payInstr struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount uint64        `json:"amount"`

	// Ref is read but never written.
	Ref types.Address `json:"ref,omitempty"`

	// Then forces a result after the transfer ran.
	Then  Result `json:"then"`
	Panic bool   `json:"panic"`
}

const typePay Type = 99

func (p *payInstr) TxType() Type { return typePay }

func (p *payInstr) Validate() error {
	if p.Amount == 0 {
		return ValidationError(TemINVALID_AMOUNT, "amount must be positive")
	}
	return RequireNonZero(p.From, p.To)
}

func (p *payInstr) Accounts() []AccountMeta {
	metas := []AccountMeta{
		{Address: p.From, Signer: true, Writable: true},
		{Address: p.To, Writable: true},
	}
	if !p.Ref.IsZero() {
		metas = append(metas, AccountMeta{Address: p.Ref})
	}
	return metas
}

func (p *payInstr) Apply(ctx *ApplyContext) Result {
	if !p.Ref.IsZero() {
		if _, err := sle.WalletLamports(ctx.View, p.Ref); err != nil {
			return ResultFromError(err)
		}
	}
	if err := sle.DebitWallet(ctx.View, p.From, p.Amount); err != nil {
		return ResultFromError(err)
	}
	if err := sle.CreditWallet(ctx.View, p.To, p.Amount); err != nil {
		return ResultFromError(err)
	}
	if p.Panic {
		panic("boom")
	}
	return p.Then
}
