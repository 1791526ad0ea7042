package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"synnergy-ledger/internal/genesis"
	"synnergy-ledger/internal/migration"
)

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "genesis document operations",
}

var genesisInitCmd = &cobra.Command{
	Use:   "init",
	Short: "parse the genesis document and commit a fresh store from it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if genesisFile == "" {
			return fmt.Errorf("ledgerd: --genesis is required")
		}
		store, err := genesis.InitStore(genesisFile, storagePath, blockchainMode, migration.NewRegistry())
		if err != nil {
			return err
		}
		hash := store.Hash()
		fmt.Fprintf(cmd.OutOrStdout(), "genesis committed: height=%d hash=%x\n", store.GetHeight(), hash[:])
		return nil
	},
}

func init() {
	genesisCmd.AddCommand(genesisInitCmd)
}
