package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"synnergy-ledger/internal/abci"
	"synnergy-ledger/internal/codec"
)

// chainCmd drives the ABCI block lifecycle directly, standing in for the
// consensus host this core does not itself connect to.
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "drive the ABCI block lifecycle by hand",
}

var blockTime uint64

var chainBeginBlockCmd = &cobra.Command{
	Use:   "begin-block",
	Short: "begin a new block, optionally setting its timestamp",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		var info abci.BlockInfo
		if blockTime > 0 {
			ts := codec.Timestamp(blockTime)
			info.Time = &ts
		}
		return n.driver.BeginBlock(info)
	},
}

var chainCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "run the double-commit block protocol",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		result, err := n.driver.Commit()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "height=%d hash=%x retain_height=%d\n", n.driver.Info().Height, result.Hash[:], result.RetainHeight)
		return nil
	},
}

var chainInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "report the last committed height and root hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		info := n.driver.Info()
		fmt.Fprintf(cmd.OutOrStdout(), "height=%d hash=%x\n", info.Height, info.Hash[:])
		return nil
	},
}

func init() {
	chainBeginBlockCmd.Flags().Uint64Var(&blockTime, "time", 0, "block time, seconds since epoch (0 = leave unchanged)")

	chainCmd.AddCommand(chainBeginBlockCmd, chainCommitCmd, chainInfoCmd)
}
