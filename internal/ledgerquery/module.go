// Package ledgerquery implements the ledger's query and command surface
// (component E): info, balance, send, transactions, and list, all layered
// over an internal/ledgerstore.Store. This is the layer that enforces
// sender authorization on send — ledgerstore.Store.Send itself has no
// notion of who is asking.
package ledgerquery

import (
	"sort"

	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/ledgererr"
	"synnergy-ledger/internal/ledgerstore"
)

// Module is the ledger query/command handler, one per node.
type Module struct {
	store *ledgerstore.Store
}

// New wraps store with the query/command surface.
func New(store *ledgerstore.Store) *Module {
	return &Module{store: store}
}

// InfoResult is the reply to ledger.info.
type InfoResult struct {
	Symbols    []address.Address
	Hash       [32]byte
	LocalNames map[address.Address]string
}

// Info reports the registered symbols, the current root hash, and the
// address→name registry.
func (m *Module) Info() InfoResult {
	names := m.store.GetSymbols()
	symbols := make([]address.Address, 0, len(names))
	for a := range names {
		symbols = append(symbols, a)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].String() < symbols[j].String() })

	return InfoResult{Symbols: symbols, Hash: m.store.Hash(), LocalNames: names}
}

// BalanceArgs are the arguments to ledger.balance.
type BalanceArgs struct {
	// Account defaults to the caller (sender) when nil.
	Account *address.Address
	// Symbols defaults to every registered symbol when empty.
	Symbols []string
}

// BalanceResult is the reply to ledger.balance.
type BalanceResult struct {
	Balances map[string]codec.TokenAmount
}

// Balance returns sender's (or args.Account's) balances.
func (m *Module) Balance(sender address.Address, args BalanceArgs) (BalanceResult, error) {
	account := sender
	if args.Account != nil {
		account = *args.Account
	}
	balances, err := m.store.GetMultipleBalances(account, args.Symbols)
	if err != nil {
		return BalanceResult{}, err
	}
	return BalanceResult{Balances: balances}, nil
}

// SendArgs are the arguments to ledger.send.
type SendArgs struct {
	// From defaults to sender when nil; sender must equal the resolved
	// from, or the call is Unauthorized.
	From   *address.Address
	To     address.Address
	Symbol string
	Amount codec.TokenAmount
}

// Send validates authorization (sender must equal args.From, defaulting
// to sender) and delegates to the ledger store.
func (m *Module) Send(sender address.Address, args SendArgs) error {
	from := sender
	if args.From != nil {
		from = *args.From
	}
	if from != sender {
		return ledgererr.Unauthorized()
	}
	return m.store.Send(from, args.To, args.Symbol, args.Amount)
}

// TransactionsResult is the reply to ledger.transactions.
type TransactionsResult struct {
	NbTransactions uint64
}

// Transactions reports the total number of transactions in the log.
func (m *Module) Transactions() TransactionsResult {
	return TransactionsResult{NbTransactions: m.store.NbTransactions()}
}
