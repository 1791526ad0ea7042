// Package idstore implements the identity-credential store: collision-
// avoiding recall-phrase generation with escalating entropy, and the
// forward (phrase→credential) and reverse (address→credential) indices
// over it.
package idstore

import (
	"time"

	"github.com/sirupsen/logrus"

	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/kvstore"
	"synnergy-ledger/internal/ledgererr"
)

// EntropySource supplies n bytes of entropy. Production wiring reads
// crypto/rand; tests inject a function returning constant bytes so
// collisions (and the resulting tier escalation) are deterministic.
type EntropySource func(n int) []byte

const (
	minCredentialIDLen = 16
	maxCredentialIDLen = 1023

	defaultRetryDelay = 10 * time.Millisecond
)

// Store is the identity-credential store, layered over a kvstore.Store —
// typically the same backend as the ledger's, since both live in one
// Merkleized KV space.
type Store struct {
	backend    kvstore.Store
	entropy    EntropySource
	retryDelay time.Duration
}

// New constructs an identity store over backend, drawing recall-phrase
// entropy from source.
func New(backend kvstore.Store, source EntropySource) *Store {
	return &Store{backend: backend, entropy: source, retryDelay: defaultRetryDelay}
}

// StoreCredential validates address and cred_id, generates a
// non-colliding recall phrase by escalating through the entropy ladder,
// persists both indices, and returns the phrase.
func (s *Store) StoreCredential(addr address.Address, credID []byte) ([]string, error) {
	if !addr.IsPublicKey() {
		return nil, ledgererr.InvalidAddress(addr.String())
	}
	if len(credID) < minCredentialIDLen || len(credID) > maxCredentialIDLen {
		return nil, ledgererr.InvalidCredentialID(len(credID))
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		phrase := generatePhrase(tierForAttempt(attempt), s.entropy)
		if _, err := s.GetFromRecallPhrase(phrase); err == nil {
			// Collision: this exact phrase is already registered.
			if attempt < maxAttempts {
				time.Sleep(s.retryDelay)
			}
			continue
		}

		credCopy := make([]byte, len(credID))
		copy(credCopy, credID)
		s.backend.Put(phraseKey(phrase), credCopy)
		s.backend.Put(addrKey(addr), credCopy)

		logrus.WithFields(logrus.Fields{"words": len(phrase), "attempt": attempt}).Info("idstore: credential stored")
		return phrase, nil
	}

	return nil, ledgererr.RecallPhraseGenerationFailed()
}

// GetFromRecallPhrase returns the credential id bound to phrase.
func (s *Store) GetFromRecallPhrase(phrase []string) ([]byte, error) {
	raw, ok := s.backend.Get(phraseKey(phrase))
	if !ok {
		return nil, ledgererr.NotFound()
	}
	return raw, nil
}

// GetFromAddress returns the credential id bound to addr.
func (s *Store) GetFromAddress(addr address.Address) ([]byte, error) {
	raw, ok := s.backend.Get(addrKey(addr))
	if !ok {
		return nil, ledgererr.NotFound()
	}
	return raw, nil
}
