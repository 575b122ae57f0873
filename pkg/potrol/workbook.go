package potrol

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var supportedWorkbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// OpenWorkbook opens the spreadsheet, retrying transient failures (antivirus
// or sync-client contention) a fixed number of times. A format problem fails
// immediately with ErrInvalidFormat.
func OpenWorkbook(path string, cfg Config) (*excelize.File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedWorkbookExtensions[ext] {
		return nil, &OpError{Op: "open", Path: path, Err: ErrInvalidFormat}
	}

	attempts := cfg.OpenRetryCount
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		f, err := excelize.OpenFile(path)
		if err == nil {
			return f, nil
		}
		if errors.Is(err, zip.ErrFormat) {
			return nil, &OpError{Op: "open", Path: path, Err: ErrInvalidFormat}
		}
		lastErr = err
		if attempt < attempts-1 {
			time.Sleep(cfg.OpenRetryDelay)
		}
	}
	return nil, &OpError{Op: "open", Path: path, Err: lastErr}
}

// CreateWorkbook writes a new workbook containing one sheet with the given
// header row.
func CreateWorkbook(path, sheet string, headers []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return classifySaveError(path, err)
	}
	return nil
}

// SheetNames lists the workbook's worksheet names.
func SheetNames(path string, cfg Config) ([]string, error) {
	f, err := OpenWorkbook(path, cfg)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Signature returns the workbook's cheap change-detection token, "<mtime>:<size>",
// or "" when the file is missing.
func Signature(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size())
}

// PathKey normalizes a workbook path for case-insensitive comparison and
// cache keying.
func PathKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return strings.ToLower(path)
	}
	return strings.ToLower(abs)
}

// ChooseDefaultSheet picks the most likely working sheet for the given year:
// sheets naming the year score highest, then totals/summary/log-style names.
func ChooseDefaultSheet(names []string, year int) string {
	if len(names) == 0 {
		return DefaultSheetName
	}

	yearToken := fmt.Sprintf("%d", year)
	wordYear := regexp.MustCompile(`\b` + yearToken + `\b`)
	yearTotals := regexp.MustCompile(yearToken + `\s*[-_ ]*\s*totals?`)

	bestName := names[0]
	bestScore := -1
	for _, name := range names {
		lowered := strings.ToLower(name)
		score := 0

		if wordYear.MatchString(lowered) {
			score += 140
		} else if strings.Contains(lowered, yearToken) {
			score += 110
		}
		if yearTotals.MatchString(lowered) {
			score += 50
		}
		if strings.Contains(lowered, "totals") {
			score += 32
		} else if strings.Contains(lowered, "total") {
			score += 24
		}
		if strings.Contains(lowered, "grand total") {
			score += 20
		}
		if strings.Contains(lowered, "summary") {
			score += 8
		}
		if strings.Contains(lowered, "po") || strings.Contains(lowered, "log") {
			score += 4
		}

		if score > bestScore {
			bestName = name
			bestScore = score
		}
	}

	if bestScore <= 0 {
		for _, name := range names {
			if strings.EqualFold(name, DefaultSheetName) {
				return name
			}
		}
		return names[0]
	}
	return bestName
}

// LoadSheetData reads a worksheet into header-keyed records for the editor
// layer, along with each record's 1-based worksheet row number. Fully blank
// rows are skipped; a missing sheet yields the default headers and no rows.
func LoadSheetData(path, sheet string, cfg Config) ([]string, []Record, []int, error) {
	f, err := OpenWorkbook(path, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	found := false
	for _, name := range f.GetSheetList() {
		if name == sheet {
			found = true
			break
		}
	}
	if !found {
		return append([]string(nil), DefaultHeaders...), nil, nil, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, nil, &OpError{Op: "open", Path: path, Err: err}
	}

	var headers []string
	if len(rows) == 0 || rowIsBlank(rows[0]) {
		headers = append([]string(nil), DefaultHeaders...)
	} else {
		headers = SanitizeHeaders(paddedHeaderRow(rows))
	}

	var records []Record
	var rowNumbers []int
	for idx := 1; idx < len(rows); idx++ {
		row := rows[idx]
		if rowIsBlank(row) {
			continue
		}
		record := make(Record, len(headers))
		for i, header := range headers {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			record[header] = value
		}
		records = append(records, record)
		rowNumbers = append(rowNumbers, idx+1)
	}
	return headers, records, rowNumbers, nil
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
