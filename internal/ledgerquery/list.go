package ledgerquery

import (
	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/ledgerstore"
)

// maxListCount is the hard ceiling on how many transactions a single list
// call can return, regardless of what the caller asks for.
const maxListCount = 100

// DateRange is an inclusive timestamp bound; a nil field on either side is
// unbounded on that side.
type DateRange struct {
	Start *codec.Timestamp
	End   *codec.Timestamp
}

// Contains reports whether t falls within the range, inclusive of both
// bounds.
func (d DateRange) Contains(t codec.Timestamp) bool {
	if d.Start != nil && t < *d.Start {
		return false
	}
	if d.End != nil && t > *d.End {
		return false
	}
	return true
}

// ListFilter composes the independent, optional predicates list applies,
// in the fixed order: account, kind, symbol, date.
type ListFilter struct {
	IDRange   ledgerstore.IDRange
	Account   []address.Address
	Kind      []codec.TransactionKind
	Symbol    *string
	DateRange *DateRange
}

func (f ListFilter) matches(tx codec.Transaction) bool {
	if len(f.Account) > 0 {
		about := false
		for _, a := range f.Account {
			if tx.IsAbout(a) {
				about = true
				break
			}
		}
		if !about {
			return false
		}
	}
	if len(f.Kind) > 0 {
		matched := false
		for _, k := range f.Kind {
			if tx.Kind() == k {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.Symbol != nil && tx.Symbol() != *f.Symbol {
		return false
	}
	if f.DateRange != nil && !f.DateRange.Contains(tx.Time) {
		return false
	}
	return true
}

// ListArgs are the arguments to ledger.list.
type ListArgs struct {
	// Count defaults to maxListCount when nil, and is clamped to it
	// otherwise.
	Count  *int
	Order  ledgerstore.Order
	Filter ListFilter
}

// ListResult is the reply to ledger.list.
type ListResult struct {
	NbTransactions uint64
	Transactions   []codec.Transaction
}

// List scans the transaction log in order, applying the filter chain
// lazily to each decoded entry in turn. A decode error anywhere in the
// scanned range aborts the whole call — it does not just skip that entry —
// since a corrupt log entry means the log itself cannot be trusted past
// that point. The first `count` entries that pass every filter are
// returned.
func (m *Module) List(args ListArgs) (ListResult, error) {
	count := maxListCount
	if args.Count != nil && *args.Count < maxListCount {
		count = *args.Count
	}
	if count < 0 {
		count = 0
	}

	entries := m.store.Iter(args.Filter.IDRange, args.Order)

	out := make([]codec.Transaction, 0, count)
	for _, entry := range entries {
		if len(out) >= count {
			break
		}
		if entry.Err != nil {
			return ListResult{}, entry.Err
		}
		if !args.Filter.matches(entry.Tx) {
			continue
		}
		out = append(out, entry.Tx)
	}

	return ListResult{NbTransactions: m.store.NbTransactions(), Transactions: out}, nil
}
