// Package testing provides test infrastructure for marketplace invocation
// testing.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: an in-memory standalone ledger behind a service.Service
//   - Account: deterministic test identities with Ed25519 key pairs
//   - Asset helpers to define assets, open balances and mint
//   - Assertions for results, balances and listing state
//
// # Basic Usage
//
//	func TestPurchase(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//
//	    alice := env.Account("alice")
//	    bob := env.Account("bob")
//	    env.Fund(alice, bob)
//
//	    gold := env.CreateAsset(alice, "GOLD", 6)
//	    usd := env.CreateAsset(bob, "USD", 2)
//	    env.Mint(gold, alice, testing.Units(10, 6))
//	    env.Mint(usd, bob, testing.Units(500, 2))
//
//	    create := listing.Create(alice, gold, usd).Price(100).Amount(1_000_000).ID(1)
//	    testing.RequireTxSuccess(t, env.Submit(create.Build(env), alice))
//	}
//
// # Builders
//
// Feature subpackages hold builders that fill in every derived address of an
// instruction, so tests only name the parties:
//
//	listing.Create(seller, sell, buy).Price(p).Amount(n).ID(id).Build(env)
//	listing.Buy(buyer, seller, id, sell, buy).Amount(n).Build(env)
//	listing.Cancel(seller, id, sell).Build(env)
package testing
