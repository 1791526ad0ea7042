// Package genesis parses the ledger's genesis JSON document into the
// types internal/ledgerstore.New expects.
package genesis

import (
	"encoding/json"
	"math/big"
	"os"

	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/ledgererr"
	"synnergy-ledger/internal/ledgerstore"
	"synnergy-ledger/internal/migration"
)

// document is the on-disk JSON shape: symbols keys map an address to a
// local symbol name, initial maps an address to a map of symbol name to
// decimal amount string, hash is an optional expected post-genesis root
// hash in hex.
type document struct {
	Initial map[string]map[string]string `json:"initial"`
	Symbols map[string]string            `json:"symbols"`
	Hash    string                       `json:"hash"`
}

// State is the parsed, typed genesis document, ready to hand to
// ledgerstore.New.
type State struct {
	Symbols map[address.Address]string
	Initial map[address.Address]map[string]codec.TokenAmount
	Hash    string
}

// Parse decodes and validates raw JSON genesis data.
func Parse(raw []byte) (State, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return State{}, ledgererr.DeserializationError(err.Error())
	}

	symbols := make(map[address.Address]string, len(doc.Symbols))
	for hexAddr, name := range doc.Symbols {
		addr, err := address.FromString(hexAddr)
		if err != nil {
			return State{}, ledgererr.InvalidAddress(hexAddr)
		}
		symbols[addr] = name
	}

	initial := make(map[address.Address]map[string]codec.TokenAmount, len(doc.Initial))
	for hexAddr, bySymbol := range doc.Initial {
		addr, err := address.FromString(hexAddr)
		if err != nil {
			return State{}, ledgererr.InvalidAddress(hexAddr)
		}
		amounts := make(map[string]codec.TokenAmount, len(bySymbol))
		for symbol, decimal := range bySymbol {
			amount, err := parseAmount(decimal)
			if err != nil {
				return State{}, err
			}
			amounts[symbol] = amount
		}
		initial[addr] = amounts
	}

	return State{Symbols: symbols, Initial: initial, Hash: doc.Hash}, nil
}

// Load reads and parses a genesis document from path.
func Load(path string) (State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return State{}, ledgererr.Unknown(err)
	}
	return Parse(raw)
}

// InitStore loads the genesis document at genesisPath and opens a fresh
// ledgerstore.Store at storePath, failing with InvalidInitialState if the
// document names an expected hash that the post-genesis root doesn't
// match.
func InitStore(genesisPath, storePath string, blockchainMode bool, migrations *migration.Registry) (*ledgerstore.Store, error) {
	state, err := Load(genesisPath)
	if err != nil {
		return nil, err
	}
	return ledgerstore.New(state.Symbols, state.Initial, storePath, blockchainMode, state.Hash, migrations)
}

// parseAmount reads a base-10, non-negative integer string.
func parseAmount(decimal string) (codec.TokenAmount, error) {
	v, ok := new(big.Int).SetString(decimal, 10)
	if !ok || v.Sign() < 0 {
		return codec.TokenAmount{}, ledgererr.DeserializationError("genesis: invalid amount " + decimal)
	}
	return codec.AmountFromBytes(v.Bytes()), nil
}
