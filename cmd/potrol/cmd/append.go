package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/potrol/potrol/pkg/potrol"
)

var (
	appendPONumber   string
	appendDate       string
	appendVendor     string
	appendDepartment string
	appendLocation   string
	appendReason     string
	appendItems      []string
	appendShipping   string
	appendTax        string
)

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Save a purchase order into the workbook",
	Long: `Append validates and saves one purchase order. Each --item takes the form
"name:price[:quantity]". The PO number is taken from --po when still free,
otherwise the next available number is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry := potrol.Entry{
			PONumber:     appendPONumber,
			Date:         appendDate,
			Vendor:       appendVendor,
			Department:   appendDepartment,
			Location:     appendLocation,
			Reason:       appendReason,
			ShippingCost: potrol.ParseAmount(appendShipping, 0),
			SalesTax:     potrol.ParseAmount(appendTax, 0),
		}
		for _, spec := range appendItems {
			item, err := parseItemSpec(spec)
			if err != nil {
				return err
			}
			entry.Items = append(entry.Items, item)
		}

		poNumber, backupPath, err := store.SavePO(flagWorkbook, resolveSheet(), entry, flagBackupDir, flagKeep)
		if err != nil {
			return err
		}
		if backupPath == "" {
			logger.Warn("no backup was taken for this save", "workbook", flagWorkbook)
		}
		fmt.Println(poNumber)
		return nil
	},
}

func parseItemSpec(spec string) (potrol.LineItem, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return potrol.LineItem{}, fmt.Errorf("invalid --item %q (want name:price[:quantity])", spec)
	}
	item := potrol.NewLineItem()
	item.Item = strings.TrimSpace(parts[0])
	item.UnitPrice = potrol.ParseAmount(parts[1], 0)
	if len(parts) == 3 {
		item.Quantity = potrol.ParseQuantity(parts[2], 1)
	}
	return item, nil
}

func init() {
	appendCmd.Flags().StringVar(&appendPONumber, "po", "", "PO number (default: next available)")
	appendCmd.Flags().StringVar(&appendDate, "date", "", "Order date")
	appendCmd.Flags().StringVar(&appendVendor, "vendor", "", "Vendor or store (required)")
	appendCmd.Flags().StringVar(&appendDepartment, "department", "", "Department")
	appendCmd.Flags().StringVar(&appendLocation, "location", "", "Location code")
	appendCmd.Flags().StringVar(&appendReason, "reason", "", "Purchase reason")
	appendCmd.Flags().StringArrayVar(&appendItems, "item", nil, "Line item as name:price[:quantity] (repeatable)")
	appendCmd.Flags().StringVar(&appendShipping, "shipping", "", "Shipping cost")
	appendCmd.Flags().StringVar(&appendTax, "tax", "", "Sales tax")
	rootCmd.AddCommand(appendCmd)
}
