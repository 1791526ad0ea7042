package idstore

import "synnergy-ledger/internal/address"

const (
	phrasePrefix = "/idstore/phrase/"
	addrPrefix   = "/idstore/addr/"
)

func phraseKey(words []string) []byte {
	return append([]byte(phrasePrefix), joinPhrase(words)...)
}

func addrKey(addr address.Address) []byte {
	key := make([]byte, 0, len(addrPrefix)+address.Size)
	key = append(key, addrPrefix...)
	key = append(key, addr[:]...)
	return key
}
