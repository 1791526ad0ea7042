// Command ledgerd is the operator and integration-test front end for the
// ledger core. It exercises every endpoint in the external interface
// table directly — there is no wire transport in this core, so this CLI
// (and chain subcommand in particular) stands in for the consensus host
// that would otherwise drive begin_block/commit.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	storagePath    string
	genesisFile    string
	blockchainMode bool
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "deterministic ledger and identity-credential store",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logrus.SetLevel(lvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "path to the store's data directory (empty = in-memory)")
	rootCmd.PersistentFlags().StringVar(&genesisFile, "genesis", "", "path to the genesis JSON document")
	rootCmd.PersistentFlags().BoolVar(&blockchainMode, "blockchain-mode", false, "blockchain (consensus-driven) mode flag passed to the store; no store code path branches on it")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace|debug|info|warn|error")

	rootCmd.AddCommand(genesisCmd, ledgerCmd, idstoreCmd, chainCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
