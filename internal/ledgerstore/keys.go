package ledgerstore

import (
	"encoding/binary"

	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/codec"
)

// Key schema. Prefixes are implementation-chosen but fixed for the life of
// a chain: changing them would orphan every existing key.
var (
	keySymbols = []byte("/config/symbols")
	keyHeight  = []byte("/meta/height")
)

const (
	balancePrefix = "/balances/"
	txPrefix      = "/txs/"
)

func balanceKey(addr address.Address, symbol string) []byte {
	key := make([]byte, 0, len(balancePrefix)+address.Size+1+len(symbol))
	key = append(key, balancePrefix...)
	key = append(key, addr[:]...)
	key = append(key, '/')
	key = append(key, symbol...)
	return key
}

func txKey(id codec.TransactionID) []byte {
	key := make([]byte, len(txPrefix)+8)
	copy(key, txPrefix)
	binary.BigEndian.PutUint64(key[len(txPrefix):], uint64(id))
	return key
}

// txKeyID recovers the TransactionId encoded in a /txs/ key produced by
// txKey.
func txKeyID(key []byte) codec.TransactionID {
	return codec.TransactionID(binary.BigEndian.Uint64(key[len(txPrefix):]))
}

// txRangeBounds returns the [lo, hi) byte bounds for the /txs/ namespace
// restricted to ids in [start, end] inclusive; nil bounds are unbounded on
// that side. hi is exclusive, so an inclusive end is bumped by one id.
func txRangeBounds(start, end *codec.TransactionID) ([]byte, []byte) {
	var lo, hi []byte
	if start != nil {
		lo = txKey(*start)
	} else {
		lo = []byte(txPrefix)
	}
	if end != nil {
		hi = txKey(*end + 1)
	} else {
		hi = txPrefixUpperBound()
	}
	return lo, hi
}

// txPrefixUpperBound returns the first key after every possible /txs/ key,
// used as an unbounded upper range bound that still stays inside the /txs/
// namespace.
func txPrefixUpperBound() []byte {
	b := []byte(txPrefix)
	b[len(b)-1]++
	return b
}
