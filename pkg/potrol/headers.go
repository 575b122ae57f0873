package potrol

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// SanitizeHeaders de-duplicates a raw header row: blanks become "Column N"
// and repeats get a " (2)", " (3)" suffix.
func SanitizeHeaders(raw []string) []string {
	headers := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for index, value := range raw {
		header := strings.TrimSpace(value)
		if header == "" {
			header = fmt.Sprintf("Column %d", index+1)
		}

		base := header
		suffix := 2
		for seen[header] {
			header = fmt.Sprintf("%s (%d)", base, suffix)
			suffix++
		}

		seen[header] = true
		headers = append(headers, header)
	}
	return headers
}

var headerTokenPattern = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeHeaderToken reduces a header to lowercase alphanumerics for alias
// matching ("PO Number" -> "ponumber").
func normalizeHeaderToken(value string) string {
	return headerTokenPattern.ReplaceAllString(strings.ToLower(value), "")
}

// Aliases {"PO Number", "PO", "PO#"} all tokenize to one of these.
func isPOHeaderToken(token string) bool {
	return token == "ponumber" || token == "po"
}

// findPOColumnIndexes locates candidate PO columns (0-based) by scanning the
// first headerScanRows rows for a PO-ish header. Column A is always included:
// legacy sheets kept PO values there without a clean header row.
func findPOColumnIndexes(rows [][]string, headerScanRows int) []int {
	if headerScanRows < 1 {
		headerScanRows = 1
	}
	maxRows := headerScanRows
	if maxRows > len(rows) {
		maxRows = len(rows)
	}

	indexSet := map[int]bool{0: true}
	for rowIdx := 0; rowIdx < maxRows; rowIdx++ {
		for colIdx, value := range rows[rowIdx] {
			if value == "" {
				continue
			}
			if isPOHeaderToken(normalizeHeaderToken(value)) {
				indexSet[colIdx] = true
			}
		}
	}

	indexes := make([]int, 0, len(indexSet))
	for idx := range indexSet {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}

// hasPOSchema reports whether a sheet's headers already form a full PO
// layout: identifier, item, price, quantity, sub-total, and grand-total
// columns all present under some alias. Only such sheets carry the
// purchase-reason stamp in the configured column.
func hasPOSchema(headers []string) bool {
	groups := [][]string{
		{"ponumber", "po"},
		{"item", "items", "itemsbeingpurchased"},
		{"price", "priceperitem"},
		{"qty", "quantity"},
		{"subtotal"},
		{"grandtotal"},
	}

	tokens := make(map[string]bool, len(headers))
	for _, header := range headers {
		tokens[normalizeHeaderToken(header)] = true
	}
	for _, aliases := range groups {
		found := false
		for _, alias := range aliases {
			if tokens[alias] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// headerIsID reports whether a column should receive the max+1 numeric
// auto-fill when a single appended row leaves it blank.
func headerIsID(header string) bool {
	lowered := strings.ToLower(header)
	if lowered == "id" || lowered == "po" {
		return true
	}
	for _, token := range []string{" id", "id ", "po number", "po #", "po#", "record number"} {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

// headerIsTimestamp reports whether a blank cell in this column should be
// stamped with the current time on append.
func headerIsTimestamp(header string) bool {
	lowered := strings.ToLower(header)
	for _, token := range []string{"created", "timestamp", "entered", "entry"} {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}
