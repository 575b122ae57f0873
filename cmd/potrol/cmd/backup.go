package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/potrol/potrol/pkg/potrol"
)

var restoreLatest bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a backup of the workbook now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backupPath, err := store.CreateBackup(flagWorkbook, flagBackupDir, flagKeep)
		if err != nil {
			return err
		}
		if backupPath == "" {
			fmt.Println("workbook does not exist yet; nothing to back up")
			return nil
		}
		fmt.Println(backupPath)
		return nil
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, backup := range potrol.ListBackups(flagWorkbook, flagBackupDir) {
			fmt.Println(backup)
		}
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [backup-file]",
	Short: "Restore the workbook from a backup",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var restored string
		var err error
		switch {
		case restoreLatest && len(args) == 0:
			restored, err = potrol.RestoreLatestBackup(flagWorkbook, flagBackupDir, store.Config())
		case len(args) == 1:
			restored, err = potrol.RestoreBackup(flagWorkbook, flagBackupDir, args[0], store.Config())
		default:
			return fmt.Errorf("pass a backup file or --latest")
		}
		if err != nil {
			return err
		}
		if restored == "" {
			return fmt.Errorf("no matching backup to restore")
		}
		fmt.Printf("restored from %s\n", restored)
		return nil
	},
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreLatest, "latest", false, "Restore the most recent backup")
	rootCmd.AddCommand(backupCmd, backupsCmd, restoreCmd)
}
