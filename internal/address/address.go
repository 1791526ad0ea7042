// Package address implements the opaque 29-byte principal identifier used
// throughout the ledger and identity store.
package address

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Size is the fixed length, in bytes, of an Address.
const Size = 29

// Category occupies the first byte of an Address and partitions the
// identifier space into disjoint kinds.
type Category byte

const (
	// CategoryAnonymous addresses carry no public key material.
	CategoryAnonymous Category = 0x00
	// CategoryPublicKey addresses are derived from a public key.
	CategoryPublicKey Category = 0x01
	// CategorySubresource addresses name a resource owned by another address.
	CategorySubresource Category = 0x02
)

// Address is an opaque, fixed-size principal identifier. The core never
// interprets its contents beyond the leading category byte.
type Address [Size]byte

// Zero is the all-zero sentinel address.
var Zero = Address{}

// Category returns the address's category byte.
func (a Address) Category() Category {
	return Category(a[0])
}

// IsPublicKey reports whether a is a public-key-derived identity, the only
// category the identity store is allowed to register.
func (a Address) IsPublicKey() bool {
	return a.Category() == CategoryPublicKey
}

// String renders the address as lowercase hex, matching the corpus
// convention for fixed-size byte-array identities.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address's raw bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, a[:])
	return out
}

// FromString parses a hex-encoded address, with or without a "0x" prefix.
func FromString(s string) (Address, error) {
	var addr Address
	s = strings.TrimPrefix(s, "0x")
	data, err := hex.DecodeString(s)
	if err != nil {
		return addr, err
	}
	if len(data) != Size {
		return addr, errors.New("address: invalid length")
	}
	copy(addr[:], data)
	return addr, nil
}

// FromBytes copies a byte slice of exactly Size bytes into an Address.
func FromBytes(b []byte) (Address, error) {
	var addr Address
	if len(b) != Size {
		return addr, errors.New("address: invalid length")
	}
	copy(addr[:], b)
	return addr, nil
}

// MarshalCBOR encodes the address as a definite-length CBOR byte string.
// Implemented explicitly rather than left to reflection so a fixed-size
// byte array is never mistaken for a CBOR array of uints.
func (a Address) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a[:])
}

// UnmarshalCBOR decodes a CBOR byte string of exactly Size bytes.
func (a *Address) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != Size {
		return errors.New("address: invalid length")
	}
	copy(a[:], raw)
	return nil
}
