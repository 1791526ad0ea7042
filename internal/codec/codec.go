// Package codec implements the canonical, deterministic binary encoding
// used for every persisted value and every externally-visible argument or
// return value in the ledger core. It is built on
// github.com/fxamacker/cbor/v2, configured for canonical CBOR (RFC 7049
// §3.9): sorted map keys, shortest-form integers, preferred serialization.
//
// Determinism is the whole point of this package: encode(v) must always
// yield the same bytes for equal v, and decode(encode(v)) must equal v.
package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR tag numbers used by the domain primitives in this package.
const (
	tagPositiveBignum  = 2
	tagEpochTimestamp  = 1
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOpts := cbor.CanonicalEncOptions()
	m, err := encOpts.EncMode()
	if err != nil {
		panic("codec: invalid canonical encode options: " + err.Error())
	}
	encMode = m

	decOpts := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}
	d, err := decOpts.DecMode()
	if err != nil {
		panic("codec: invalid decode options: " + err.Error())
	}
	decMode = d
}

// Marshal encodes v using the canonical encoding mode. Every domain type
// in this package that needs non-default CBOR shape implements
// cbor.Marshaler/cbor.Unmarshaler itself; Marshal/Unmarshal are the single
// entry point every caller (ledgerstore, kvstore) goes through so
// the mode is never configured twice.
func Marshal(v interface{}) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, NewDecodeError(err.Error())
	}
	return b, nil
}

// Unmarshal decodes data into v using the canonical decode mode.
func Unmarshal(data []byte, v interface{}) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return NewDecodeError(err.Error())
	}
	return nil
}
