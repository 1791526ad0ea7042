package kvstore

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"synnergy-ledger/internal/codec"
)

// walOp is a single buffered mutation, persisted as one CBOR-encoded line
// per write-ahead-log record — the same journal-then-snapshot shape the
// teacher's ledger.go uses for its block WAL, generalized here to raw KV
// mutations instead of whole blocks.
type walOp struct {
	Delete bool
	Key    []byte
	Value  []byte
}

// MemStore is an in-process Store: a sorted in-memory map guarded by a
// mutex, with a write-ahead log of pending mutations and a full snapshot
// written at each Commit.
type MemStore struct {
	mu sync.RWMutex

	committed  map[string][]byte
	sortedKeys []string // cache, rebuilt on every Commit

	pendingPut map[string][]byte
	pendingDel map[string]bool

	root RootHash

	dir          string
	snapshotPath string
	walPath      string
	walFile      *os.File
}

// Open creates or reopens a MemStore rooted at dir, replaying any existing
// snapshot and WAL.
func Open(dir string) (*MemStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("kvstore: mkdir: %w", err)
		}
	}

	s := &MemStore{
		committed:  make(map[string][]byte),
		pendingPut: make(map[string][]byte),
		pendingDel: make(map[string]bool),
	}

	if dir != "" {
		s.snapshotPath = filepath.Join(dir, "ledger.snap")
		s.walPath = filepath.Join(dir, "ledger.wal")

		if data, err := os.ReadFile(s.snapshotPath); err == nil {
			if err := codec.Unmarshal(data, &s.committed); err != nil {
				return nil, fmt.Errorf("kvstore: decode snapshot: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("kvstore: read snapshot: %w", err)
		}

		wal, err := os.OpenFile(s.walPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("kvstore: open wal: %w", err)
		}
		s.walFile = wal

		if err := s.replayWAL(); err != nil {
			_ = wal.Close()
			return nil, err
		}
	}

	s.rebuildIndex()
	s.root = computeRootHash(s.committed)
	return s, nil
}

func (s *MemStore) replayWAL() error {
	if _, err := s.walFile.Seek(0, 0); err != nil {
		return fmt.Errorf("kvstore: seek wal: %w", err)
	}
	scanner := bufio.NewScanner(s.walFile)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var op walOp
		if err := codec.Unmarshal(scanner.Bytes(), &op); err != nil {
			return fmt.Errorf("kvstore: decode wal entry: %w", err)
		}
		if op.Delete {
			delete(s.committed, string(op.Key))
		} else {
			s.committed[string(op.Key)] = op.Value
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("kvstore: scan wal: %w", err)
	}
	if _, err := s.walFile.Seek(0, 2); err != nil {
		return fmt.Errorf("kvstore: seek wal end: %w", err)
	}
	return nil
}

func (s *MemStore) rebuildIndex() {
	keys := make([]string, 0, len(s.committed))
	for k := range s.committed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.sortedKeys = keys
}

// Get returns the value for key, checking pending mutations first so a
// read observes its own writes before the next Commit.
func (s *MemStore) Get(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k := string(key)
	if s.pendingDel[k] {
		return nil, false
	}
	if v, ok := s.pendingPut[k]; ok {
		return v, true
	}
	v, ok := s.committed[k]
	return v, ok
}

// Put buffers a mutation for the next Commit.
func (s *MemStore) Put(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	delete(s.pendingDel, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	s.pendingPut[k] = cp
}

// Delete buffers a removal for the next Commit.
func (s *MemStore) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	delete(s.pendingPut, k)
	s.pendingDel[k] = true
}

// Commit folds pending mutations into the committed set, persists the
// snapshot, truncates the WAL, and returns the new root hash.
func (s *MemStore) Commit(meta []byte) (RootHash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.pendingPut {
		s.committed[k] = v
		s.appendWAL(walOp{Key: []byte(k), Value: v})
	}
	for k := range s.pendingDel {
		delete(s.committed, k)
		s.appendWAL(walOp{Delete: true, Key: []byte(k)})
	}
	s.pendingPut = make(map[string][]byte)
	s.pendingDel = make(map[string]bool)

	if s.walFile != nil {
		if err := s.walFile.Sync(); err != nil {
			return RootHash{}, fmt.Errorf("kvstore: sync wal: %w", err)
		}
		if err := s.snapshotLocked(); err != nil {
			return RootHash{}, err
		}
	}

	s.rebuildIndex()
	s.root = computeRootHash(s.committed)
	logrus.WithFields(logrus.Fields{"keys": len(s.committed)}).Debug("kvstore: commit")
	return s.root, nil
}

func (s *MemStore) appendWAL(op walOp) {
	if s.walFile == nil {
		return
	}
	data, err := codec.Marshal(op)
	if err != nil {
		logrus.Errorf("kvstore: encode wal entry: %v", err)
		return
	}
	if _, err := s.walFile.Write(append(data, '\n')); err != nil {
		logrus.Errorf("kvstore: write wal entry: %v", err)
	}
}

func (s *MemStore) snapshotLocked() error {
	data, err := codec.Marshal(s.committed)
	if err != nil {
		return fmt.Errorf("kvstore: encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o600); err != nil {
		return fmt.Errorf("kvstore: write snapshot: %w", err)
	}
	if err := s.walFile.Close(); err != nil {
		return fmt.Errorf("kvstore: close wal: %w", err)
	}
	wal, err := os.Create(s.walPath)
	if err != nil {
		return fmt.Errorf("kvstore: truncate wal: %w", err)
	}
	s.walFile = wal
	return nil
}

// RootHash returns the last committed root hash.
func (s *MemStore) RootHash() RootHash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// computeRootHash is a pure function of committed KV content: double
// sha256 (grounded on the teacher's Block.Hash in replication.go) over the
// sorted concatenation of key||0x00||value||0x00 for every committed entry, so
// insertion order never affects the result.
func computeRootHash(committed map[string][]byte) RootHash {
	keys := make([]string, 0, len(committed))
	for k := range committed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte(0)
		buf.Write(committed[k])
		buf.WriteByte(0)
	}
	first := sha256.Sum256(buf.Bytes())
	second := sha256.Sum256(first[:])
	return RootHash(second)
}

// Range returns an iterator over committed keys in [lo, hi). hi == nil
// means unbounded.
func (s *MemStore) Range(lo, hi []byte, dir Direction) Iterator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loS := string(lo)
	start := sort.SearchStrings(s.sortedKeys, loS)
	end := len(s.sortedKeys)
	if hi != nil {
		end = sort.SearchStrings(s.sortedKeys, string(hi))
	}
	if start > end {
		start = end
	}

	keys := make([]string, end-start)
	copy(keys, s.sortedKeys[start:end])
	if dir == Descending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = s.committed[k]
	}

	return &sliceIterator{keys: keys, values: values, idx: -1}
}

type sliceIterator struct {
	keys   []string
	values [][]byte
	idx    int
}

func (it *sliceIterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *sliceIterator) Key() []byte {
	return []byte(it.keys[it.idx])
}

func (it *sliceIterator) Value() []byte {
	return it.values[it.idx]
}
