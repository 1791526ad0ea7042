package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var idstoreCmd = &cobra.Command{
	Use:   "idstore",
	Short: "identity-credential store operations",
}

var (
	idstoreStoreAddress string
	idstoreStoreCredHex string
)

var idstoreStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "register a credential for an address, returning its recall phrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		addr, err := resolveAddress(idstoreStoreAddress)
		if err != nil {
			return fmt.Errorf("--address: %w", err)
		}
		credID, err := hex.DecodeString(strings.TrimPrefix(idstoreStoreCredHex, "0x"))
		if err != nil {
			return fmt.Errorf("--cred-id: %w", err)
		}
		phrase, err := n.ids.StoreCredential(addr, credID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(phrase, " "))
		return nil
	},
}

var idstoreGetPhraseCmd = &cobra.Command{
	Use:   "get-phrase [words...]",
	Short: "resolve a recall phrase to its credential id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		credID, err := n.ids.GetFromRecallPhrase(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(credID))
		return nil
	},
}

var idstoreGetAddressCmd = &cobra.Command{
	Use:   "get-address",
	Short: "resolve an address to its registered credential id",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		addr, err := resolveAddress(idstoreStoreAddress)
		if err != nil {
			return fmt.Errorf("--address: %w", err)
		}
		credID, err := n.ids.GetFromAddress(addr)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(credID))
		return nil
	},
}

func init() {
	idstoreStoreCmd.Flags().StringVar(&idstoreStoreAddress, "address", "", "address (hex)")
	idstoreStoreCmd.Flags().StringVar(&idstoreStoreCredHex, "cred-id", "", "credential id (hex)")

	idstoreGetAddressCmd.Flags().StringVar(&idstoreStoreAddress, "address", "", "address (hex)")

	idstoreCmd.AddCommand(idstoreStoreCmd, idstoreGetPhraseCmd, idstoreGetAddressCmd)
}
