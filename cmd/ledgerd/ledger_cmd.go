package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/ledgerquery"
	"synnergy-ledger/internal/ledgerstore"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "ledger queries and commands",
}

var ledgerInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "report registered symbols and the current root hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		info := n.query.Info()
		fmt.Fprintf(cmd.OutOrStdout(), "hash=%x\n", info.Hash[:])
		for _, sym := range info.Symbols {
			fmt.Fprintf(cmd.OutOrStdout(), "symbol %s -> %s\n", sym.String(), info.LocalNames[sym])
		}
		return nil
	},
}

var (
	balanceAccount string
	balanceSymbols []string
)

var ledgerBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "report an account's balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		sender, err := resolveAddress(balanceAccount)
		if err != nil {
			return err
		}
		res, err := n.query.Balance(sender, ledgerquery.BalanceArgs{Account: &sender, Symbols: balanceSymbols})
		if err != nil {
			return err
		}
		for symbol, amount := range res.Balances {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", symbol, amount.String())
		}
		return nil
	},
}

var (
	sendFrom   string
	sendTo     string
	sendSymbol string
	sendAmount string
)

var ledgerSendCmd = &cobra.Command{
	Use:   "send",
	Short: "move funds between two accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		sender, err := resolveAddress(sendFrom)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		to, err := resolveAddress(sendTo)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		amount, err := parseAmount(sendAmount)
		if err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		if err := n.query.Send(sender, ledgerquery.SendArgs{From: &sender, To: to, Symbol: sendSymbol, Amount: amount}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

var ledgerTransactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "report the total number of appended transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n.query.Transactions().NbTransactions)
		return nil
	},
}

var (
	listCount  int
	listOrder  string
	listSymbol string
)

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadNode()
		if err != nil {
			return err
		}
		order := ledgerstore.Ascending
		if strings.EqualFold(listOrder, "descending") {
			order = ledgerstore.Descending
		}

		args2 := ledgerquery.ListArgs{Order: order}
		if listCount > 0 {
			args2.Count = &listCount
		}
		if listSymbol != "" {
			sym := listSymbol
			args2.Filter.Symbol = &sym
		}

		res, err := n.query.List(args2)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "nb_transactions=%d\n", res.NbTransactions)
		for _, tx := range res.Transactions {
			fmt.Fprintf(cmd.OutOrStdout(), "id=%d time=%d kind=%v symbol=%s\n", tx.ID, tx.Time, tx.Kind(), tx.Symbol())
		}
		return nil
	},
}

func resolveAddress(hexAddr string) (address.Address, error) {
	if hexAddr == "" {
		return address.Address{}, fmt.Errorf("address is required")
	}
	return address.FromString(hexAddr)
}

func parseAmount(decimal string) (codec.TokenAmount, error) {
	v, ok := new(big.Int).SetString(decimal, 10)
	if !ok || v.Sign() < 0 {
		return codec.TokenAmount{}, fmt.Errorf("invalid amount %q", decimal)
	}
	return codec.AmountFromBytes(v.Bytes()), nil
}

func init() {
	ledgerBalanceCmd.Flags().StringVar(&balanceAccount, "account", "", "account address (hex)")
	ledgerBalanceCmd.Flags().StringSliceVar(&balanceSymbols, "symbols", nil, "comma-separated symbols (default: all registered)")

	ledgerSendCmd.Flags().StringVar(&sendFrom, "from", "", "sender address (hex)")
	ledgerSendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address (hex)")
	ledgerSendCmd.Flags().StringVar(&sendSymbol, "symbol", "", "token symbol")
	ledgerSendCmd.Flags().StringVar(&sendAmount, "amount", "0", "amount, base-10")

	ledgerListCmd.Flags().IntVar(&listCount, "count", 0, "max transactions to return (0 = server default)")
	ledgerListCmd.Flags().StringVar(&listOrder, "order", "ascending", "ascending|descending")
	ledgerListCmd.Flags().StringVar(&listSymbol, "symbol", "", "filter by symbol")

	ledgerCmd.AddCommand(ledgerInfoCmd, ledgerBalanceCmd, ledgerSendCmd, ledgerTransactionsCmd, ledgerListCmd)
}
