package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/asset"
	"github.com/LeJamon/goListingd/internal/core/tx/listing"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

// Submit applies a signed envelope. Envelopes already applied within the
// dedup window fail early with telDUPLICATE_TX; older ones fail in the engine
// because their nonce is behind the signer's sequence. The error is non-nil
// only if ctx ended before the invocation ran.
func (s *Service) Submit(ctx context.Context, env *tx.Envelope) (tx.ApplyResult, error) {
	if s.closed.Load() {
		return tx.ApplyResult{Result: tx.TelLOCAL_ERROR, Message: tx.TelLOCAL_ERROR.Message()}, ErrClosed
	}
	start := time.Now()

	var hash [32]byte
	if env != nil && env.Tx != nil {
		h, err := env.Hash(s.config.Engine.ProgramID)
		if err == nil {
			hash = h
			if !s.reserve(hash) {
				s.metrics.ObserveInvocation(env.Tx.TxType().String(), tx.TelDUPLICATE_TX.String(), time.Since(start))
				return tx.ApplyResult{
					Result:   tx.TelDUPLICATE_TX,
					Hash:     hash,
					Metadata: &tx.Metadata{TransactionResult: tx.TelDUPLICATE_TX},
					Message:  tx.TelDUPLICATE_TX.Message(),
				}, nil
			}
		}
	}

	res, err := s.engine.ApplyContext(ctx, env)
	if !res.Applied && hash != ([32]byte{}) {
		// Nothing changed; the same envelope may be resubmitted.
		s.release(hash)
	}
	if env == nil || env.Tx == nil {
		return res, err
	}

	txType := env.Tx.TxType().String()
	s.metrics.ObserveInvocation(txType, res.Result.String(), time.Since(start))
	if !res.Applied {
		s.log.Debugf("%s %X rejected: %s", txType, res.Hash[:8], res.Result)
		return res, err
	}

	summary := summarize(env.Tx, res)
	s.trackListings(res.Metadata)
	if _, ok := env.Tx.(*listing.Purchase); ok {
		s.metrics.AddUnitsSold(summary.Amount)
	}
	s.record(ctx, summary, res)
	s.events.Publish(&Event{
		Invocation: summary,
		Applied:    s.state.Applied(),
		Metadata:   res.Metadata,
	})
	return res, err
}

func (s *Service) reserve(hash [32]byte) bool {
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()
	if s.dedup.Contains(hash) {
		return false
	}
	s.dedup.Add(hash, struct{}{})
	return true
}

func (s *Service) release(hash [32]byte) {
	s.dedupMu.Lock()
	s.dedup.Remove(hash)
	s.dedupMu.Unlock()
}

// Invocation summarizes an applied instruction for history and events.
type Invocation struct {
	Hash    string         `json:"hash"`
	Type    string         `json:"type"`
	Result  string         `json:"result"`
	Signer  types.Address  `json:"signer"`
	Listing *types.Address `json:"listing,omitempty"`
	Amount  uint64         `json:"amount"`
	Cost    uint64         `json:"cost"`
}

func summarize(t tx.Transaction, res tx.ApplyResult) Invocation {
	inv := Invocation{
		Hash:   relationaldb.Hash(res.Hash).String(),
		Type:   t.TxType().String(),
		Result: res.Result.String(),
	}
	if signers := tx.Signers(t); len(signers) > 0 {
		inv.Signer = signers[0]
	}

	setListing := func(addr types.Address) {
		inv.Listing = &addr
	}
	switch v := t.(type) {
	case *listing.CreateListing:
		setListing(v.Listing)
		inv.Amount = v.Amount
	case *listing.Purchase:
		setListing(v.Listing)
		inv.Amount = v.BuyAmount
		inv.Cost = amountDelta(res.Metadata, v.SellerBuyBalance)
	case *listing.CancelListing:
		setListing(v.Listing)
		if node, ok := res.Metadata.Node(v.Listing.String()); ok {
			inv.Amount = fieldUint(node.FinalFields, "RemainingAmount")
		}
	case *asset.MintTo:
		inv.Amount = v.Amount
	case *asset.Fund:
		inv.Signer = v.Destination
		inv.Amount = v.Amount
	}
	return inv
}

// amountDelta is the increase of a balance's Amount recorded in metadata.
func amountDelta(meta *tx.Metadata, addr types.Address) uint64 {
	node, ok := meta.Node(addr.String())
	if !ok || node.PreviousFields == nil {
		return 0
	}
	prev, had := node.PreviousFields["Amount"]
	if !had {
		return 0
	}
	final := fieldUint(node.FinalFields, "Amount")
	before, _ := prev.(uint64)
	if final < before {
		return 0
	}
	return final - before
}

func fieldUint(fields map[string]any, name string) uint64 {
	v, _ := fields[name].(uint64)
	return v
}

// trackListings keeps the active listing count current from the listing
// nodes an invocation touched.
func (s *Service) trackListings(meta *tx.Metadata) {
	if meta == nil {
		return
	}
	var delta int64
	for _, node := range meta.AffectedNodes {
		if node.EntryType != entry.TypeListing.String() {
			continue
		}
		switch node.Kind {
		case sle.NodeCreated:
			if fieldUint(node.NewFields, "RemainingAmount") > 0 {
				delta++
			}
		case sle.NodeModified:
			prev, changed := node.PreviousFields["RemainingAmount"]
			if changed {
				before, _ := prev.(uint64)
				if before > 0 && fieldUint(node.FinalFields, "RemainingAmount") == 0 {
					delta--
				}
			}
		case sle.NodeDeleted:
			if fieldUint(node.FinalFields, "RemainingAmount") > 0 {
				delta--
			}
		}
	}
	if delta != 0 {
		s.metrics.SetActiveListings(int(s.active.Add(delta)))
	}
}

func (s *Service) record(ctx context.Context, inv Invocation, res tx.ApplyResult) {
	if s.history == nil {
		return
	}
	meta, err := json.Marshal(res.Metadata)
	if err != nil {
		s.log.Errorf("Failed to encode metadata for %s: %v", inv.Hash, err)
		return
	}
	rec := &relationaldb.Invocation{
		Hash:     relationaldb.Hash(res.Hash),
		Type:     inv.Type,
		Result:   inv.Result,
		Signer:   inv.Signer,
		Amount:   inv.Amount,
		Cost:     inv.Cost,
		Metadata: meta,
	}
	if inv.Listing != nil {
		rec.Listing = *inv.Listing
	}
	// History is best effort: the invocation is already committed.
	if err := s.history.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Errorf("Failed to record %s in history: %v", inv.Hash, err)
	}
}

// Faucet credits native funds to dest. Standalone only.
func (s *Service) Faucet(ctx context.Context, dest types.Address, amount uint64) (tx.ApplyResult, error) {
	if !s.config.Engine.Standalone {
		return tx.ApplyResult{}, ErrNotStandalone
	}
	env := tx.NewEnvelope(&asset.Fund{Destination: dest, Amount: amount}, uint64(time.Now().UnixNano()))
	return s.Submit(ctx, env)
}
