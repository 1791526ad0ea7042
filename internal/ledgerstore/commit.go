package ledgerstore

import (
	"github.com/sirupsen/logrus"

	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/ledgererr"
)

// CommitResult is returned from Commit: retain_height is a backend hint (0
// means "keep all" — this core never prunes), hash is the block's
// announced root hash.
type CommitResult struct {
	RetainHeight uint64
	Hash         [32]byte
}

// checkTimedOutMultisig is the commit-time housekeeping hook the spec
// leaves undefined. This core does not implement multisig; the hook is
// called and its result ignored, same as the source it was distilled from.
func (s *Store) checkTimedOutMultisig() error {
	return nil
}

// Commit runs the block commit protocol: an optional housekeeping sweep,
// height increment, a commit to persist the block's pending mutations,
// registered migrations for the height after the new one, and a second commit to fold
// migration effects into the block's announced root hash. The double
// commit is required so migrations observe a fully-materialized pre-state
// and still contribute to the hash this block publishes.
func (s *Store) Commit() (CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.checkTimedOutMultisig()

	s.height++

	heightBytes, err := codec.Marshal(s.height)
	if err != nil {
		return CommitResult{}, ledgererr.Unknown(err)
	}
	s.backend.Put(keyHeight, heightBytes)

	if _, err := s.backend.Commit(nil); err != nil {
		return CommitResult{}, ledgererr.Unknown(err)
	}

	// Migrations run against height+1, one block ahead of the height just
	// committed — matching the source this protocol is distilled from,
	// where the post-increment height is itself passed as height, and
	// run_migrations is called with height+1.
	if err := s.migrations.Run(s.height+1, s.backend); err != nil {
		return CommitResult{}, ledgererr.Unknown(err)
	}

	root, err := s.backend.Commit(nil)
	if err != nil {
		return CommitResult{}, ledgererr.Unknown(err)
	}

	s.latestTID = codec.TransactionID(s.height << HeightEventIDShift)

	logrus.WithFields(logrus.Fields{"height": s.height, "hash": root}).Debug("ledgerstore: block committed")

	return CommitResult{RetainHeight: 0, Hash: [32]byte(root)}, nil
}
