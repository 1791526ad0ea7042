// Package abci implements the ABCI commit driver (component F): the
// endpoint classification table a consensus host consults at startup, and
// the block lifecycle hooks (init_chain, begin_block, info, commit) that
// drive internal/ledgerstore's commit protocol from outside. Real ABCI
// wire transport is out of scope; this package is the seam a transport
// adapter or a CLI driving blocks by hand would call into.
package abci

import (
	"github.com/sirupsen/logrus"

	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/ledgerstore"
)

// EndpointInfo classifies a wire endpoint as command (state-mutating,
// goes through consensus) or query (read-only, answered against the last
// committed state).
type EndpointInfo struct {
	IsCommand bool
}

// InitResult is the reply to init(): the full endpoint table.
type InitResult struct {
	Endpoints map[string]EndpointInfo
}

// Init returns the fixed endpoint classification table. idstore's
// endpoints are all commands, including the two lookups — unlike
// ledger.balance/transactions/list, identity lookups are not exposed as
// queries so the host can hold them to the same consensus ordering as
// idstore.store.
func Init() InitResult {
	return InitResult{
		Endpoints: map[string]EndpointInfo{
			"ledger.info":                 {IsCommand: false},
			"ledger.balance":              {IsCommand: false},
			"ledger.send":                 {IsCommand: true},
			"ledger.transactions":         {IsCommand: false},
			"ledger.list":                 {IsCommand: false},
			"idstore.store":               {IsCommand: true},
			"idstore.getFromRecallPhrase": {IsCommand: true},
			"idstore.getFromAddress":      {IsCommand: true},
		},
	}
}

// BlockInfo carries the consensus-host-supplied block metadata passed to
// begin_block. Time is seconds since epoch; nil means the host did not
// supply one, and the store's block time is left unchanged.
type BlockInfo struct {
	Time *codec.Timestamp
}

// InfoResult is the reply to info(): the last committed height and root
// hash.
type InfoResult struct {
	Height uint64
	Hash   [32]byte
}

// Driver wires a ledgerstore.Store into the ABCI block lifecycle.
type Driver struct {
	store *ledgerstore.Store
}

// New constructs a Driver over store.
func New(store *ledgerstore.Store) *Driver {
	return &Driver{store: store}
}

// InitChain is a no-op hook: this core has no chain-genesis work beyond
// what ledgerstore.New already performed when the store was opened.
func (d *Driver) InitChain() error {
	logrus.Info("abci: init_chain()")
	return nil
}

// BeginBlock sets the store's block time from info.Time when present.
// Transactions appended during the block are stamped with this value,
// never the node's local clock.
func (d *Driver) BeginBlock(info BlockInfo) error {
	logrus.WithField("time", info.Time).Debug("abci: begin_block()")
	if info.Time != nil {
		d.store.SetTime(*info.Time)
	}
	return nil
}

// Info reports the last committed height and root hash.
func (d *Driver) Info() InfoResult {
	height := d.store.GetHeight()
	hash := d.store.Hash()
	logrus.WithFields(logrus.Fields{"height": height, "hash": hash}).Debug("abci: info()")
	return InfoResult{Height: height, Hash: hash}
}

// Commit runs the block commit protocol and returns the result the host
// publishes: a retain-height hint (always 0 — this core never prunes) and
// the block's announced root hash.
func (d *Driver) Commit() (ledgerstore.CommitResult, error) {
	result, err := d.store.Commit()
	if err != nil {
		return ledgerstore.CommitResult{}, err
	}
	logrus.WithFields(logrus.Fields{"height": d.store.GetHeight(), "hash": result.Hash}).Info("abci: commit()")
	return result, nil
}
