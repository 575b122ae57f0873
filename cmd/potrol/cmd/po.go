package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/potrol/potrol/pkg/potrol"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Print the next free PO number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		next, err := store.NextPONumber(flagWorkbook, resolveSheet())
		if err != nil {
			return err
		}
		fmt.Println(next)
		return nil
	},
}

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Reserve a tentative PO number for this session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		poNumber, err := store.Reserve(flagWorkbook, resolveSheet())
		if err != nil {
			return err
		}
		fmt.Printf("%s (session %s)\n", poNumber, store.Session().ID)
		return nil
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release [session-id]",
	Short: "Release a PO number reservation",
	Long: `Release drops a session's reservation from the ledger. With no argument it
releases this process's own session; pass a session ID to clean up after
another session (for example one shown by "potrol diag").`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return store.ReleaseReservation(flagWorkbook)
		}
		ledger := potrol.NewLedger(store.Config(), potrol.NewScanner(store.Config()))
		return ledger.Release(flagWorkbook, args[0])
	},
}

var reservationsCmd = &cobra.Command{
	Use:   "reservations",
	Short: "Count active PO number reservations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := store.ActiveReservations(flagWorkbook, resolveSheet())
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists <po-number>",
	Short: "Check whether a PO number is already committed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exists, err := store.PONumberExists(flagWorkbook, args[0], resolveSheet())
		if err != nil {
			return err
		}
		if exists {
			fmt.Println("taken")
		} else {
			fmt.Println("free")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nextCmd, reserveCmd, releaseCmd, reservationsCmd, existsCmd)
}
