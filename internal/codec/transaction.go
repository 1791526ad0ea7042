package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"synnergy-ledger/internal/address"
)

// TransactionContent is the tagged union of transaction variants. The kind
// byte mapping is centralized here rather than scattered across variant
// constructors.
type TransactionContent interface {
	Kind() TransactionKind
	// Parties returns the addresses this transaction concerns, used by the
	// account filter in the list query.
	Parties() []address.Address
	// SymbolName returns the transaction's symbol, used by the symbol filter.
	SymbolName() string
	isTransactionContent()
}

// SendContent moves amount of symbol from from to to.
type SendContent struct {
	From, To address.Address
	Symbol   string
	Amount   TokenAmount
}

func (SendContent) Kind() TransactionKind                  { return KindSend }
func (c SendContent) Parties() []address.Address           { return []address.Address{c.From, c.To} }
func (c SendContent) SymbolName() string                   { return c.Symbol }
func (SendContent) isTransactionContent()                  {}

// MintContent creates amount of symbol in account.
type MintContent struct {
	Account address.Address
	Symbol  string
	Amount  TokenAmount
}

func (MintContent) Kind() TransactionKind         { return KindMint }
func (c MintContent) Parties() []address.Address  { return []address.Address{c.Account} }
func (c MintContent) SymbolName() string          { return c.Symbol }
func (MintContent) isTransactionContent()         {}

// BurnContent destroys amount of symbol from account.
type BurnContent struct {
	Account address.Address
	Symbol  string
	Amount  TokenAmount
}

func (BurnContent) Kind() TransactionKind         { return KindBurn }
func (c BurnContent) Parties() []address.Address  { return []address.Address{c.Account} }
func (c BurnContent) SymbolName() string          { return c.Symbol }
func (BurnContent) isTransactionContent()         {}

// Wire shapes: definite-length CBOR arrays, kind byte first, remaining
// elements in field-declaration order. The blank ",toarray" field tells
// the codec to encode/decode the struct positionally instead of as a map.
type sendWire struct {
	_      struct{} `cbor:",toarray"`
	Kind   uint8
	From   address.Address
	To     address.Address
	Symbol string
	Amount TokenAmount
}

type mintBurnWire struct {
	_       struct{} `cbor:",toarray"`
	Kind    uint8
	Account address.Address
	Symbol  string
	Amount  TokenAmount
}

func (c SendContent) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(sendWire{
		Kind: uint8(KindSend), From: c.From, To: c.To, Symbol: c.Symbol, Amount: c.Amount,
	})
}

func (c MintContent) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(mintBurnWire{
		Kind: uint8(KindMint), Account: c.Account, Symbol: c.Symbol, Amount: c.Amount,
	})
}

func (c BurnContent) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(mintBurnWire{
		Kind: uint8(KindBurn), Account: c.Account, Symbol: c.Symbol, Amount: c.Amount,
	})
}

// peekArrayKind decodes only the first element of a definite-length CBOR
// array to discover the variant's discriminant, without committing to a
// fixed array length.
func peekArrayKind(raw cbor.RawMessage) (uint8, error) {
	var items []cbor.RawMessage
	if err := decMode.Unmarshal(raw, &items); err != nil {
		return 0, NewDecodeError(err.Error())
	}
	if len(items) == 0 {
		return 0, NewDecodeError("TransactionContent: empty array")
	}
	var kind uint8
	if err := decMode.Unmarshal(items[0], &kind); err != nil {
		return 0, NewDecodeError(err.Error())
	}
	return kind, nil
}

// decodeContent dispatches on the discriminant to the concrete variant's
// wire shape; a length mismatch for the variant surfaces as a DecodeError
// from the underlying array decode.
func decodeContent(raw cbor.RawMessage) (TransactionContent, error) {
	kind, err := peekArrayKind(raw)
	if err != nil {
		return nil, err
	}
	switch TransactionKind(kind) {
	case KindSend:
		var w sendWire
		if err := decMode.Unmarshal(raw, &w); err != nil {
			return nil, NewDecodeError(err.Error())
		}
		return SendContent{From: w.From, To: w.To, Symbol: w.Symbol, Amount: w.Amount}, nil
	case KindMint:
		var w mintBurnWire
		if err := decMode.Unmarshal(raw, &w); err != nil {
			return nil, NewDecodeError(err.Error())
		}
		return MintContent{Account: w.Account, Symbol: w.Symbol, Amount: w.Amount}, nil
	case KindBurn:
		var w mintBurnWire
		if err := decMode.Unmarshal(raw, &w); err != nil {
			return nil, NewDecodeError(err.Error())
		}
		return BurnContent{Account: w.Account, Symbol: w.Symbol, Amount: w.Amount}, nil
	default:
		return nil, NewDecodeError("TransactionContent: discriminant out of range")
	}
}

// TransactionID is a monotonically non-decreasing identifier whose high
// bits embed block height; see HeightEventIDShift.
type TransactionID uint64

// HeightEventIDShift reserves the low 32 bits of a TransactionID for the
// intra-block sequence number, leaving the high 32 bits for block height.
const HeightEventIDShift = 32

// Height extracts the block height component of the id.
func (id TransactionID) Height() uint64 {
	return uint64(id) >> HeightEventIDShift
}

// Transaction is the full committed record: id, time, and content.
type Transaction struct {
	ID      TransactionID
	Time    Timestamp
	Content TransactionContent
}

type transactionWire struct {
	ID      TransactionID   `cbor:"0,keyasint"`
	Time    Timestamp       `cbor:"1,keyasint"`
	Content cbor.RawMessage `cbor:"2,keyasint"`
}

// MarshalCBOR encodes the transaction as a map with integer keys
// 0=id, 1=time, 2=content, in sorted map-key order.
func (t Transaction) MarshalCBOR() ([]byte, error) {
	contentBytes, err := encMode.Marshal(t.Content)
	if err != nil {
		return nil, NewDecodeError(err.Error())
	}
	return encMode.Marshal(transactionWire{ID: t.ID, Time: t.Time, Content: contentBytes})
}

// UnmarshalCBOR decodes a transaction map, failing with a DecodeError if a
// key is missing/duplicated or the content array doesn't match a known
// variant shape.
//
// decMode's DupMapKeyEnforcedAPF rejects duplicate keys during the raw-map
// decode below, but it has nothing to say about absent ones, so presence of
// keys 0 (id), 1 (time), and 2 (content) is checked explicitly before any
// field is populated.
func (t *Transaction) UnmarshalCBOR(data []byte) error {
	var raw map[int]cbor.RawMessage
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return NewDecodeError(err.Error())
	}
	for _, key := range []int{0, 1, 2} {
		if _, ok := raw[key]; !ok {
			return NewDecodeError(fmt.Sprintf("transaction: missing key %d", key))
		}
	}

	var id TransactionID
	if err := decMode.Unmarshal(raw[0], &id); err != nil {
		return NewDecodeError(err.Error())
	}
	var tm Timestamp
	if err := decMode.Unmarshal(raw[1], &tm); err != nil {
		return NewDecodeError(err.Error())
	}
	content, err := decodeContent(raw[2])
	if err != nil {
		return err
	}

	t.ID = id
	t.Time = tm
	t.Content = content
	return nil
}

// Kind returns the transaction's variant tag.
func (t Transaction) Kind() TransactionKind {
	return t.Content.Kind()
}

// IsAbout reports whether addr is a party to the transaction.
func (t Transaction) IsAbout(addr address.Address) bool {
	for _, p := range t.Content.Parties() {
		if p == addr {
			return true
		}
	}
	return false
}

// Symbol returns the transaction's symbol.
func (t Transaction) Symbol() string {
	return t.Content.SymbolName()
}
