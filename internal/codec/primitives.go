package codec

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// TokenAmount is a non-negative arbitrary-precision integer. The zero value
// is ready to use and represents zero.
type TokenAmount struct {
	v *big.Int
}

// ZeroAmount returns a TokenAmount equal to zero.
func ZeroAmount() TokenAmount {
	return TokenAmount{v: new(big.Int)}
}

// AmountFromUint64 constructs a TokenAmount from a uint64.
func AmountFromUint64(v uint64) TokenAmount {
	return TokenAmount{v: new(big.Int).SetUint64(v)}
}

// AmountFromBytes interprets b as a big-endian unsigned integer.
func AmountFromBytes(b []byte) TokenAmount {
	return TokenAmount{v: new(big.Int).SetBytes(b)}
}

func (t TokenAmount) big() *big.Int {
	if t.v == nil {
		return new(big.Int)
	}
	return t.v
}

// IsZero reports whether the amount is zero.
func (t TokenAmount) IsZero() bool {
	return t.big().Sign() == 0
}

// Add returns t + o.
func (t TokenAmount) Add(o TokenAmount) TokenAmount {
	return TokenAmount{v: new(big.Int).Add(t.big(), o.big())}
}

// SubSaturating returns t - o, clamped to zero if the result would be
// negative. This is a defined accounting-guard semantic, not an error; the
// externally-visible send operation must reject insufficient funds before
// ever calling this.
func (t TokenAmount) SubSaturating(o TokenAmount) TokenAmount {
	if t.big().Cmp(o.big()) <= 0 {
		return ZeroAmount()
	}
	return TokenAmount{v: new(big.Int).Sub(t.big(), o.big())}
}

// Cmp compares t and o the way big.Int.Cmp does.
func (t TokenAmount) Cmp(o TokenAmount) int {
	return t.big().Cmp(o.big())
}

// LessThan reports whether t < o.
func (t TokenAmount) LessThan(o TokenAmount) bool {
	return t.Cmp(o) < 0
}

// String renders the amount in base 10.
func (t TokenAmount) String() string {
	return t.big().String()
}

// canonicalBytes returns the minimum-length big-endian encoding, with a
// single zero byte standing in for the zero value (never an empty slice).
func (t TokenAmount) canonicalBytes() []byte {
	if t.IsZero() {
		return []byte{0}
	}
	return t.big().Bytes()
}

// MarshalCBOR encodes the amount as a tagged positive-bignum (tag 2) byte
// string, matching the standard CBOR bignum convention.
func (t TokenAmount) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(cbor.Tag{Number: tagPositiveBignum, Content: t.canonicalBytes()})
}

// UnmarshalCBOR decodes a tagged positive-bignum.
func (t *TokenAmount) UnmarshalCBOR(data []byte) error {
	var tag cbor.Tag
	if err := decMode.Unmarshal(data, &tag); err != nil {
		return NewDecodeError(err.Error())
	}
	if tag.Number != tagPositiveBignum {
		return NewDecodeError("TokenAmount: wrong tag")
	}
	raw, ok := tag.Content.([]byte)
	if !ok {
		return NewDecodeError("TokenAmount: tag content is not a byte string")
	}
	if len(raw) > 1 && raw[0] == 0 {
		return NewDecodeError("TokenAmount: leading zero byte")
	}
	t.v = new(big.Int).SetBytes(raw)
	return nil
}

// Timestamp is seconds since the Unix epoch.
type Timestamp uint64

// MarshalCBOR encodes the timestamp as a tagged (tag 1) unsigned integer.
func (ts Timestamp) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(cbor.Tag{Number: tagEpochTimestamp, Content: uint64(ts)})
}

// UnmarshalCBOR decodes a tagged epoch timestamp.
func (ts *Timestamp) UnmarshalCBOR(data []byte) error {
	var tag cbor.Tag
	if err := decMode.Unmarshal(data, &tag); err != nil {
		return NewDecodeError(err.Error())
	}
	if tag.Number != tagEpochTimestamp {
		return NewDecodeError("Timestamp: wrong tag")
	}
	secs, ok := tag.Content.(uint64)
	if !ok {
		if s, ok2 := tag.Content.(int64); ok2 && s >= 0 {
			secs = uint64(s)
		} else {
			return NewDecodeError("Timestamp: tag content is not an unsigned integer")
		}
	}
	*ts = Timestamp(secs)
	return nil
}

// TransactionKind enumerates the fixed set of transaction variants.
type TransactionKind uint8

const (
	KindSend TransactionKind = 0
	KindMint TransactionKind = 1
	KindBurn TransactionKind = 2
)

// MarshalCBOR encodes the kind as a single unsigned byte.
func (k TransactionKind) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(uint8(k))
}

// UnmarshalCBOR decodes a single unsigned byte, rejecting out-of-range
// discriminants.
func (k *TransactionKind) UnmarshalCBOR(data []byte) error {
	var b uint8
	if err := decMode.Unmarshal(data, &b); err != nil {
		return NewDecodeError(err.Error())
	}
	if b > uint8(KindBurn) {
		return NewDecodeError("TransactionKind: discriminant out of range")
	}
	*k = TransactionKind(b)
	return nil
}

// VecOrSingle economizes the wire form of a collection: a single-element
// list encodes as the bare element, anything else as an array. Decoding
// accepts either form.
type VecOrSingle[T any] []T

// MarshalCBOR implements the single-element collapsing rule.
func (v VecOrSingle[T]) MarshalCBOR() ([]byte, error) {
	if len(v) == 1 {
		return encMode.Marshal(v[0])
	}
	return encMode.Marshal([]T(v))
}

// UnmarshalCBOR accepts either a bare element or an array, distinguished
// by the CBOR major type of the first byte (array major type is 4).
func (v *VecOrSingle[T]) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return NewDecodeError("VecOrSingle: empty input")
	}
	majorType := data[0] >> 5
	const cborMajorArray = 4
	if majorType == cborMajorArray {
		var arr []T
		if err := decMode.Unmarshal(data, &arr); err != nil {
			return NewDecodeError(err.Error())
		}
		*v = arr
		return nil
	}
	var single T
	if err := decMode.Unmarshal(data, &single); err != nil {
		return NewDecodeError(err.Error())
	}
	*v = VecOrSingle[T]{single}
	return nil
}
