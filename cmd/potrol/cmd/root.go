// Package cmd implements the potrol CLI commands.
package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/potrol/potrol/pkg/potrol"
)

var (
	flagWorkbook  string
	flagSheet     string
	flagBackupDir string
	flagKeep      int
	flagPrefix    string
	flagStart     int

	logger *slog.Logger
	store  *potrol.Store
)

var rootCmd = &cobra.Command{
	Use:   "potrol",
	Short: "Purchase order entry against a shared Excel workbook",
	Long: `potrol reads and writes a shared Excel workbook as its purchase order
database, coordinating concurrent sessions through advisory file locks,
a PO-number reservation ledger, and backup-before-write.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

		fileCfg := loadFileConfig()
		if flagWorkbook == "" {
			flagWorkbook = fileCfg.Workbook
		}
		if flagWorkbook == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			flagWorkbook = filepath.Join(home, "Downloads", "IT POs.xlsx")
		}
		if flagSheet == "" {
			flagSheet = fileCfg.Sheet
		}
		if flagBackupDir == "" {
			flagBackupDir = fileCfg.BackupDir
		}
		if flagBackupDir == "" {
			flagBackupDir = filepath.Join(filepath.Dir(flagWorkbook), "PO_Backups")
		}
		if !cmd.Flags().Changed("keep") && fileCfg.KeepBackups > 0 {
			flagKeep = fileCfg.KeepBackups
		}
		if !cmd.Flags().Changed("prefix") && fileCfg.Prefix != "" {
			flagPrefix = fileCfg.Prefix
		}
		if !cmd.Flags().Changed("start") && fileCfg.StartNumber > 0 {
			flagStart = fileCfg.StartNumber
		}

		cfg := potrol.DefaultConfig()
		cfg.Prefix = flagPrefix
		cfg.StartNumber = flagStart
		cfg.BackupKeepLatest = flagKeep
		store = potrol.NewStore(cfg)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagWorkbook, "workbook", "w", "", "Workbook path (default: ~/Downloads/IT POs.xlsx)")
	rootCmd.PersistentFlags().StringVarP(&flagSheet, "sheet", "s", "", "Worksheet name (default: best match for the current year)")
	rootCmd.PersistentFlags().StringVar(&flagBackupDir, "backup-dir", "", "Backup directory (default: PO_Backups beside the workbook)")
	rootCmd.PersistentFlags().IntVar(&flagKeep, "keep", potrol.DefaultConfig().BackupKeepLatest, "Backups to retain per workbook")
	rootCmd.PersistentFlags().StringVar(&flagPrefix, "prefix", potrol.DefaultConfig().Prefix, "PO number prefix")
	rootCmd.PersistentFlags().IntVar(&flagStart, "start", potrol.DefaultConfig().StartNumber, "First PO sequence number")
}

// resolveSheet returns the configured sheet, or the best-scoring sheet for
// the current year when none was configured.
func resolveSheet() string {
	if flagSheet != "" {
		return flagSheet
	}
	names, err := potrol.SheetNames(flagWorkbook, store.Config())
	if err != nil {
		return potrol.DefaultSheetName
	}
	return potrol.ChooseDefaultSheet(names, time.Now().Year())
}
