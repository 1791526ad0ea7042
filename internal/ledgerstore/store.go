// Package ledgerstore implements the ledger state machine: the symbol
// registry, balance accounting, the append-only transaction log, block
// height tracking, and the double-commit block protocol, all layered over
// a kvstore.Store. Mutation methods require exclusive access from a single
// caller, matching the backend's single-writer contract.
package ledgerstore

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/kvstore"
	"synnergy-ledger/internal/ledgererr"
	"synnergy-ledger/internal/migration"
)

// HeightEventIDShift reserves the low 32 bits of a transaction id for the
// intra-block sequence number, leaving the high 32 bits for block height.
const HeightEventIDShift = codec.HeightEventIDShift

// Order selects ascending or descending iteration over the transaction log.
type Order int

const (
	Ascending Order = iota
	Descending
)

// IDRange restricts Iter to transaction ids in [Start, End] inclusive; a
// nil bound is unbounded on that side.
type IDRange struct {
	Start *codec.TransactionID
	End   *codec.TransactionID
}

// Store is the ledger state machine.
type Store struct {
	mu sync.Mutex

	backend    kvstore.Store
	migrations *migration.Registry

	symbols   map[address.Address]string
	height    uint64
	latestTID codec.TransactionID
	blockTime codec.Timestamp
	txCount   uint64
}

func storeDirection(o Order) kvstore.Direction {
	if o == Descending {
		return kvstore.Descending
	}
	return kvstore.Ascending
}

// New initializes a fresh store at path: writes the symbol registry and
// every nonzero initial balance, then commits once. Genesis commit height
// is 0 — the full double-commit block protocol only applies to later
// blocks. If expectedHash is non-empty, the post-commit root hash (hex) is
// compared against it and a mismatch fails with InvalidInitialState and
// returns no store; by then the genesis state has already been committed
// to the backend at path.
func New(
	symbols map[address.Address]string,
	initialBalances map[address.Address]map[string]codec.TokenAmount,
	path string,
	blockchainMode bool,
	expectedHash string,
	migrations *migration.Registry,
) (*Store, error) {
	backend, err := kvstore.Open(path)
	if err != nil {
		return nil, ledgererr.Unknown(err)
	}
	if migrations == nil {
		migrations = migration.NewRegistry()
	}

	s := &Store{
		backend:    backend,
		migrations: migrations,
		symbols:    symbols,
	}

	registryBytes, err := codec.Marshal(symbols)
	if err != nil {
		return nil, ledgererr.Unknown(err)
	}
	backend.Put(keySymbols, registryBytes)

	for addr, bySymbol := range initialBalances {
		for symbol, amount := range bySymbol {
			if amount.IsZero() {
				continue
			}
			if !symbolRegistered(symbols, symbol) {
				return nil, ledgererr.UnknownSymbol(symbol)
			}
			amountBytes, err := codec.Marshal(amount)
			if err != nil {
				return nil, ledgererr.Unknown(err)
			}
			backend.Put(balanceKey(addr, symbol), amountBytes)
		}
	}

	heightBytes, err := codec.Marshal(uint64(0))
	if err != nil {
		return nil, ledgererr.Unknown(err)
	}
	backend.Put(keyHeight, heightBytes)

	root, err := backend.Commit(nil)
	if err != nil {
		return nil, ledgererr.Unknown(err)
	}
	s.height = 0
	s.latestTID = 0

	actual := fmt.Sprintf("%x", root[:])
	if expectedHash != "" && expectedHash != actual {
		return nil, ledgererr.InvalidInitialState(expectedHash, actual)
	}

	logrus.WithFields(logrus.Fields{"symbols": len(symbols), "hash": actual}).Info("ledgerstore: genesis committed")
	return s, nil
}

// symbolRegistered reports whether symbol is bound to some address in the
// registry — the registry is keyed by address, but balances and sends are
// addressed by symbol name, so lookups go the other way.
func symbolRegistered(symbols map[address.Address]string, symbol string) bool {
	for _, s := range symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Load rehydrates a store from an existing path, deriving latestTID from
// the stored height.
func Load(path string, blockchainMode bool, migrations *migration.Registry) (*Store, error) {
	backend, err := kvstore.Open(path)
	if err != nil {
		return nil, ledgererr.Unknown(err)
	}
	if migrations == nil {
		migrations = migration.NewRegistry()
	}

	s := &Store{backend: backend, migrations: migrations}

	registryBytes, ok := backend.Get(keySymbols)
	if !ok {
		return nil, ledgererr.Unknown(fmt.Errorf("ledgerstore: load: missing symbol registry at %q", path))
	}
	var symbols map[address.Address]string
	if err := codec.Unmarshal(registryBytes, &symbols); err != nil {
		return nil, ledgererr.DeserializationError(err.Error())
	}
	s.symbols = symbols

	heightBytes, ok := backend.Get(keyHeight)
	if !ok {
		return nil, ledgererr.Unknown(fmt.Errorf("ledgerstore: load: missing height at %q", path))
	}
	var height uint64
	if err := codec.Unmarshal(heightBytes, &height); err != nil {
		return nil, ledgererr.DeserializationError(err.Error())
	}
	s.height = height
	s.latestTID = codec.TransactionID(height << HeightEventIDShift)

	var count uint64
	it := backend.Range([]byte(txPrefix), txPrefixUpperBound(), kvstore.Ascending)
	for it.Next() {
		count++
	}
	s.txCount = count

	logrus.WithFields(logrus.Fields{"height": height, "transactions": count}).Info("ledgerstore: loaded")
	return s, nil
}

// Backend returns the underlying KV store, so other components addressed
// to the same Merkleized KV space (the identity-credential store) can
// share it rather than opening a second, divergent store at the same
// path.
func (s *Store) Backend() kvstore.Store {
	return s.backend
}

// GetSymbols returns the fixed genesis symbol registry.
func (s *Store) GetSymbols() map[address.Address]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[address.Address]string, len(s.symbols))
	for k, v := range s.symbols {
		out[k] = v
	}
	return out
}

// Hash returns the last committed root hash.
func (s *Store) Hash() [32]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return [32]byte(s.backend.RootHash())
}

// GetHeight returns the current block height.
func (s *Store) GetHeight() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// SetTime stores the current block's wall-clock time, supplied by the
// consensus host; transactions appended afterwards are stamped with this
// value rather than the node's local clock.
func (s *Store) SetTime(t codec.Timestamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockTime = t
}

// GetMultipleBalances returns, for each requested symbol, the account's
// stored amount or zero; absent entries collapse to zero and are omitted.
func (s *Store) GetMultipleBalances(addr address.Address, symbols []string) (map[string]codec.TokenAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(symbols) == 0 {
		symbols = make([]string, 0, len(s.symbols))
		for _, name := range s.symbols {
			symbols = append(symbols, name)
		}
	}

	out := make(map[string]codec.TokenAmount, len(symbols))
	for _, symbol := range symbols {
		amount, ok, err := s.getBalanceLocked(addr, symbol)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[symbol] = amount
	}
	return out, nil
}

// getBalanceLocked reads a balance key; a missing key is zero, not an
// error, matching "missing entry ⇔ zero" from the data model.
func (s *Store) getBalanceLocked(addr address.Address, symbol string) (codec.TokenAmount, bool, error) {
	raw, ok := s.backend.Get(balanceKey(addr, symbol))
	if !ok {
		return codec.ZeroAmount(), false, nil
	}
	var amount codec.TokenAmount
	if err := codec.Unmarshal(raw, &amount); err != nil {
		return codec.TokenAmount{}, false, ledgererr.DeserializationError(err.Error())
	}
	return amount, true, nil
}

// NbTransactions returns the number of transactions ever appended,
// maintained as a running counter updated on every append.
func (s *Store) NbTransactions() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}
