package potrol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LineItem is one purchased item on an entry form. RowID keeps form rows
// addressable across edits; it is never written to the workbook.
type LineItem struct {
	RowID     string
	Item      string
	UnitPrice float64
	Quantity  int
}

// NewLineItem returns an empty line item with a fresh row ID.
func NewLineItem() LineItem {
	return LineItem{
		RowID:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		Quantity: 1,
	}
}

// Entry is one purchase order as captured by the entry form. PONumber may be
// left blank to take the next available number at save time.
type Entry struct {
	PONumber   string
	Date       string
	Vendor     string
	Department string
	Location   string
	Reason     string

	Items        []LineItem
	ShippingCost float64
	SalesTax     float64
}

type normalizedLineItem struct {
	Item      string
	UnitPrice float64
	Quantity  int
	SubTotal  float64
}

// normalizeLineItems drops fully blank lines, rejects priced lines without a
// name, and rounds money to cents.
func normalizeLineItems(items []LineItem) ([]normalizedLineItem, []string) {
	var normalized []normalizedLineItem
	var problems []string

	for index, item := range items {
		name := strings.TrimSpace(item.Item)
		unitPrice := round2(item.UnitPrice)
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}

		if name == "" && unitPrice == 0 {
			continue
		}
		if name == "" {
			problems = append(problems, fmt.Sprintf("Line %d is missing an item name.", index+1))
			continue
		}

		normalized = append(normalized, normalizedLineItem{
			Item:      name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
			SubTotal:  round2(unitPrice * float64(quantity)),
		})
	}
	return normalized, problems
}

// Validate rejects an entry before any file mutation is attempted.
func (e Entry) Validate() error {
	var problems []string
	if strings.TrimSpace(e.Vendor) == "" {
		problems = append(problems, "Vendor is required.")
	}
	items, itemProblems := normalizeLineItems(e.Items)
	problems = append(problems, itemProblems...)
	if len(items) == 0 && len(itemProblems) == 0 {
		problems = append(problems, "At least one line item is required.")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// BuildEntryRows composes the worksheet rows for an entry: the PO-identifying
// fields appear only on the first row, each line item gets its own row,
// shipping and tax become trailing rows, and the grand total lands on the
// last row. Collaborators grouping rows back into POs forward-fill the blank
// identity cells.
func BuildEntryRows(e Entry) ([]Record, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	items, _ := normalizeLineItems(e.Items)

	shipping := round2(e.ShippingCost)
	tax := round2(e.SalesTax)
	grandTotal := shipping + tax
	for _, item := range items {
		grandTotal += item.SubTotal
	}
	grandTotal = round2(grandTotal)

	blankRow := func() Record {
		row := make(Record, len(DefaultHeaders))
		for _, header := range DefaultHeaders {
			row[header] = ""
		}
		return row
	}

	var rows []Record
	for index, item := range items {
		row := blankRow()
		if index == 0 {
			row["PO Number"] = strings.TrimSpace(e.PONumber)
			row["Date"] = strings.TrimSpace(e.Date)
			row["Vendor/Store"] = strings.TrimSpace(e.Vendor)
			row["Department"] = strings.TrimSpace(e.Department)
			row["Location"] = strings.TrimSpace(e.Location)
		}
		row["Items Being Purchased"] = item.Item
		row["Price Per Item"] = item.UnitPrice
		row["Quantity"] = item.Quantity
		row["Sub Total"] = item.SubTotal
		rows = append(rows, row)
	}

	if shipping > 0 {
		row := blankRow()
		row["Items Being Purchased"] = "Shipping Cost"
		row["Price Per Item"] = shipping
		row["Quantity"] = 1
		row["Sub Total"] = shipping
		row["Shipping Cost"] = shipping
		rows = append(rows, row)
	}
	if tax > 0 {
		row := blankRow()
		row["Items Being Purchased"] = "Tax"
		row["Price Per Item"] = tax
		row["Quantity"] = 1
		row["Sub Total"] = tax
		row["Sales Tax"] = tax
		rows = append(rows, row)
	}

	rows[len(rows)-1]["Grand Total"] = grandTotal
	return rows, nil
}

// ParseAmount reads a money value from user text, tolerating "$" and
// thousands separators. Unparseable input yields the default.
func ParseAmount(value string, def float64) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return def
	}
	return parsed
}

// ParseQuantity reads a positive item count from user text, rounding
// fractions and falling back to the default for anything non-positive.
func ParseQuantity(value string, def int) int {
	parsed := int(math.Round(ParseAmount(value, float64(def))))
	if parsed <= 0 {
		return def
	}
	return parsed
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
