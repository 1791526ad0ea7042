package ledgerstore

import (
	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/ledgererr"
)

// nextTransactionIDLocked advances latestTID by one and returns the new
// value — the intra-block sequence number described in §4.3. Must be
// called with s.mu held.
func (s *Store) nextTransactionIDLocked() codec.TransactionID {
	s.latestTID++
	return s.latestTID
}

// appendTransactionLocked assigns the next id, stamps the block time, and
// persists the transaction. Must be called with s.mu held.
func (s *Store) appendTransactionLocked(content codec.TransactionContent) error {
	tx := codec.Transaction{
		ID:      s.nextTransactionIDLocked(),
		Time:    s.blockTime,
		Content: content,
	}
	data, err := codec.Marshal(tx)
	if err != nil {
		return ledgererr.Unknown(err)
	}
	s.backend.Put(txKey(tx.ID), data)
	s.txCount++
	return nil
}

func (s *Store) setBalanceLocked(addr address.Address, symbol string, amount codec.TokenAmount) error {
	if amount.IsZero() {
		s.backend.Delete(balanceKey(addr, symbol))
		return nil
	}
	data, err := codec.Marshal(amount)
	if err != nil {
		return ledgererr.Unknown(err)
	}
	s.backend.Put(balanceKey(addr, symbol), data)
	return nil
}

// Send moves amount of symbol from from to to. It rejects unregistered
// symbols and insufficient funds before any mutation; the balance
// subtraction and addition, and the transaction append, happen atomically
// from the caller's perspective (single-writer, no partial visibility
// until the next backend Commit).
func (s *Store) Send(from, to address.Address, symbol string, amount codec.TokenAmount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !symbolRegistered(s.symbols, symbol) {
		return ledgererr.UnknownSymbol(symbol)
	}

	fromBalance, _, err := s.getBalanceLocked(from, symbol)
	if err != nil {
		return err
	}
	if fromBalance.LessThan(amount) {
		return ledgererr.InsufficientFunds()
	}

	toBalance, _, err := s.getBalanceLocked(to, symbol)
	if err != nil {
		return err
	}

	if err := s.setBalanceLocked(from, symbol, fromBalance.SubSaturating(amount)); err != nil {
		return err
	}
	if err := s.setBalanceLocked(to, symbol, toBalance.Add(amount)); err != nil {
		return err
	}

	return s.appendTransactionLocked(codec.SendContent{From: from, To: to, Symbol: symbol, Amount: amount})
}

// Mint creates amount of symbol in account.
func (s *Store) Mint(account address.Address, symbol string, amount codec.TokenAmount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !symbolRegistered(s.symbols, symbol) {
		return ledgererr.UnknownSymbol(symbol)
	}

	balance, _, err := s.getBalanceLocked(account, symbol)
	if err != nil {
		return err
	}
	if err := s.setBalanceLocked(account, symbol, balance.Add(amount)); err != nil {
		return err
	}

	return s.appendTransactionLocked(codec.MintContent{Account: account, Symbol: symbol, Amount: amount})
}

// Burn destroys amount of symbol from account, rejecting insufficient
// funds before any mutation, the same way Send does.
func (s *Store) Burn(account address.Address, symbol string, amount codec.TokenAmount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !symbolRegistered(s.symbols, symbol) {
		return ledgererr.UnknownSymbol(symbol)
	}

	balance, _, err := s.getBalanceLocked(account, symbol)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return ledgererr.InsufficientFunds()
	}
	if err := s.setBalanceLocked(account, symbol, balance.SubSaturating(amount)); err != nil {
		return err
	}

	return s.appendTransactionLocked(codec.BurnContent{Account: account, Symbol: symbol, Amount: amount})
}

// TxEntry is one decoded record from Iter, paired with any decode error
// encountered reading it — callers (the list query's filter chain) must
// propagate a non-nil Err unchanged rather than skipping the entry.
type TxEntry struct {
	ID  codec.TransactionID
	Tx  codec.Transaction
	Err error
}

// GetTransaction looks up a single transaction by id. Unlike Iter, this
// goes through the backend's Get (which checks buffered pending mutations
// before committed state), so it sees a transaction appended earlier in
// the same block, before the next Commit.
func (s *Store) GetTransaction(id codec.TransactionID) (codec.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.backend.Get(txKey(id))
	if !ok {
		return codec.Transaction{}, false, nil
	}
	var tx codec.Transaction
	if err := codec.Unmarshal(raw, &tx); err != nil {
		return codec.Transaction{}, false, ledgererr.DeserializationError(err.Error())
	}
	return tx, true, nil
}

// Iter returns an ordered scan over the committed transaction log
// restricted to idRange, ascending or descending per order — like the
// ledger.list query it backs, it only sees transactions from blocks that
// have already been committed; use GetTransaction for a point lookup that
// also sees the current block's uncommitted appends. The returned slice is
// materialized eagerly since MemStore's Range already is; a backend with a
// true cursor would stream this instead.
func (s *Store) Iter(idRange IDRange, order Order) []TxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, hi := txRangeBounds(idRange.Start, idRange.End)
	it := s.backend.Range(lo, hi, storeDirection(order))

	var entries []TxEntry
	for it.Next() {
		id := txKeyID(it.Key())
		var tx codec.Transaction
		err := codec.Unmarshal(it.Value(), &tx)
		if err != nil {
			entries = append(entries, TxEntry{ID: id, Err: ledgererr.DeserializationError(err.Error())})
			continue
		}
		entries = append(entries, TxEntry{ID: id, Tx: tx})
	}
	return entries
}
