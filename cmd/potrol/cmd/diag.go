package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/potrol/potrol/pkg/potrol"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List worksheets, marking the default pick",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := potrol.SheetNames(flagWorkbook, store.Config())
		if err != nil {
			return err
		}
		chosen := potrol.ChooseDefaultSheet(names, time.Now().Year())
		for _, name := range names {
			marker := " "
			if name == chosen {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Show coordination state for the workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		signature := potrol.Signature(flagWorkbook)
		if signature == "" {
			signature = "(workbook missing)"
		}
		fmt.Printf("workbook:   %s\n", flagWorkbook)
		fmt.Printf("signature:  %s\n", signature)

		lockPath := potrol.LockPath(flagWorkbook)
		if info, err := os.Stat(lockPath); err == nil {
			fmt.Printf("lock:       held (age %s)\n", time.Since(info.ModTime()).Round(time.Second))
		} else {
			fmt.Printf("lock:       free\n")
		}

		count, err := store.ActiveReservations(flagWorkbook, resolveSheet())
		if err != nil {
			logger.Warn("could not read reservations", "error", err)
		} else {
			fmt.Printf("reserved:   %d active\n", count)
		}

		if tail := potrol.RuntimeLogTail(10); len(tail) > 0 {
			fmt.Println("recent log:")
			for _, line := range tail {
				fmt.Printf("  %s\n", line)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd, diagCmd)
}
