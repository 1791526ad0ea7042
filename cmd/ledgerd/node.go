package main

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"synnergy-ledger/internal/abci"
	"synnergy-ledger/internal/idstore"
	"synnergy-ledger/internal/ledgerquery"
	"synnergy-ledger/internal/ledgerstore"
	"synnergy-ledger/internal/migration"
	"synnergy-ledger/pkg/config"
)

// node bundles the handles every ledgerd subcommand but genesis init
// needs: the ledger state machine, its query/command surface, the
// identity-credential store sharing its KV space, and the ABCI driver.
type node struct {
	store  *ledgerstore.Store
	query  *ledgerquery.Module
	ids    *idstore.Store
	driver *abci.Driver
}

var (
	nodeOnce   sync.Once
	sharedNode *node
	nodeErr    error
)

// cryptoEntropy is the production EntropySource: crypto/rand. Tests in
// internal/idstore inject a deterministic source instead.
func cryptoEntropy(count int) []byte {
	b := make([]byte, count)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// resolvedStoragePath returns --storage if set, else the config file's
// storage.path, else "" (in-memory).
func resolvedStoragePath(cfg *config.Config) string {
	if storagePath != "" {
		return storagePath
	}
	return cfg.Storage.Path
}

// loadConfig reads the layered config file + environment, tolerating a
// missing config file entirely — this CLI is fully drivable from flags
// alone, the config file is an optional overlay for deployed nodes.
func loadConfig() *config.Config {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.WithError(err).Debug("ledgerd: no config file found, using flags and defaults")
		return &config.Config{}
	}
	return cfg
}

// loadNode opens (once per process) the ledger store at the resolved
// storage path and wires the query surface, identity store, and ABCI
// driver over it.
func loadNode() (*node, error) {
	nodeOnce.Do(func() {
		cfg := loadConfig()
		path := resolvedStoragePath(cfg)

		store, err := ledgerstore.Load(path, blockchainMode, migration.NewRegistry())
		if err != nil {
			nodeErr = fmt.Errorf("ledgerd: load store at %q: %w", path, err)
			return
		}

		sharedNode = &node{
			store:  store,
			query:  ledgerquery.New(store),
			ids:    idstore.New(store.Backend(), cryptoEntropy),
			driver: abci.New(store),
		}
	})
	return sharedNode, nodeErr
}
