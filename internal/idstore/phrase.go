package idstore

import (
	"crypto/sha256"
	"strings"

	bip39 "github.com/tyler-smith/go-bip39"
)

// tier describes one rung of the escalating-entropy recall-phrase ladder:
// Words word-table indices are derived from EntropyBytes of entropy plus
// ChecksumBits leading bits of sha256(entropy), for a total of
// Words*11 bits — the same ratio BIP-39 uses, except the checksum length
// varies per tier here instead of being fixed at entropy_bits/32.
type tier struct {
	Words        int
	EntropyBytes int
	ChecksumBits int
}

// tiers is indexed by attempt: attempts 1-2 use tiers[0], 3-4 use tiers[1],
// 5-6 use tiers[2], 7-8 use tiers[3].
var tiers = [4]tier{
	{Words: 2, EntropyBytes: 2, ChecksumBits: 6},
	{Words: 3, EntropyBytes: 4, ChecksumBits: 1},
	{Words: 4, EntropyBytes: 5, ChecksumBits: 4},
	{Words: 5, EntropyBytes: 6, ChecksumBits: 7},
}

// tierForAttempt returns the ladder rung for a 1-based attempt number in
// [1, 8].
func tierForAttempt(attempt int) tier {
	return tiers[(attempt-1)/2]
}

// maxAttempts is the size of the full retry ladder (two attempts per
// tier); exhausting it fails the whole store-credential call.
const maxAttempts = len(tiers) * 2

// generatePhrase draws EntropyBytes of entropy from source, appends the
// leading ChecksumBits bits of its sha256 digest, and slices the
// concatenated bitstream into Words 11-bit word-table indices.
func generatePhrase(t tier, source EntropySource) []string {
	entropy := source(t.EntropyBytes)
	digest := sha256.Sum256(entropy)

	// entropy bits followed by the checksum byte; only the leading
	// ChecksumBits bits of the checksum byte are ever read.
	buf := make([]byte, t.EntropyBytes+1)
	copy(buf, entropy)
	buf[t.EntropyBytes] = digest[0]

	wordlist := bip39.GetWordList()
	words := make([]string, t.Words)
	for i := 0; i < t.Words; i++ {
		idx := bits11(buf, i*11)
		words[i] = wordlist[idx]
	}
	return words
}

// bits11 reads an 11-bit, MSB-first big-endian value starting at bitOffset
// within buf.
func bits11(buf []byte, bitOffset int) int {
	v := 0
	for i := 0; i < 11; i++ {
		pos := bitOffset + i
		byteIdx := pos / 8
		bitIdx := 7 - uint(pos%8)
		bit := (buf[byteIdx] >> bitIdx) & 1
		v = (v << 1) | int(bit)
	}
	return v
}

// joinPhrase renders a recall phrase as its storage key suffix.
func joinPhrase(words []string) string {
	return strings.Join(words, " ")
}
