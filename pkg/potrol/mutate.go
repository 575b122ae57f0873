package potrol

import (
	"errors"
	"io/fs"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const timestampLayout = "2006-01-02 15:04"

// Record maps header names to cell values for one worksheet row.
type Record map[string]any

// RowUpdate addresses one existing worksheet row (1-based, below the header)
// and the field values to write into it.
type RowUpdate struct {
	Row    int
	Values Record
}

// AppendOptions configures AppendRecord.
type AppendOptions struct {
	BackupDir   string
	KeepBackups int

	// PurchaseReason, when non-empty and PurchaseReasonColumn > 0 (1-based),
	// is stamped onto the first written row only.
	PurchaseReason       string
	PurchaseReasonColumn int
}

// UpdateOptions configures UpdateSheetRows.
type UpdateOptions struct {
	BackupDir   string
	KeepBackups int
	Deletes     []int
	NewRows     []Record
}

// AppendRecord appends one logical record — a single row, or an ordered
// multi-row PO (header row plus item rows) — under the workbook write lock.
// It backs up first (best-effort), reconciles the header row, writes below
// the last populated row, and saves. Returns the backup path, "" when no
// backup was taken.
func AppendRecord(path, sheet string, headers []string, rows []Record, opts AppendOptions, cfg Config) (string, error) {
	guard, err := AcquireLock(path, cfg.LockTimeout, cfg.LockStaleAfter)
	if err != nil {
		return "", err
	}
	defer guard.Release()
	return appendRecordLocked(path, sheet, headers, rows, opts, cfg)
}

func appendRecordLocked(path, sheet string, headers []string, rows []Record, opts AppendOptions, cfg Config) (string, error) {
	// Backup failure must not block the business write; it degrades into a
	// runtime-log line and an empty backup path.
	backupPath, backupErr := CreateBackup(path, opts.BackupDir, opts.KeepBackups, cfg)
	if backupErr != nil {
		AppendRuntimeLog("WARN", "backup", backupErr.Error())
		backupPath = ""
	}

	f, err := OpenWorkbook(path, cfg)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if !sheetExists(f, sheet) {
		if _, err := f.NewSheet(sheet); err != nil {
			return "", &OpError{Op: "append", Path: path, Err: err}
		}
		writeHeaderRow(f, sheet, headers)
	}

	sheetRows, err := f.GetRows(sheet)
	if err != nil {
		return "", &OpError{Op: "append", Path: path, Err: err}
	}
	colOf := reconcileHeaders(f, sheet, headers, sheetRows)

	rowColumns := headerColumns(headers, colOf)
	startCol, endCol := columnSpan(rowColumns)
	firstRow := findNextWriteRow(sheetRows, rowColumns)
	lastRow := firstRow - 1
	single := len(rows) == 1

	for offset, rowValues := range rows {
		rowIdx := firstRow + offset
		lastRow = rowIdx
		styleCopied := copyPreviousRowStyle(f, sheet, rowIdx, startCol, endCol)

		for _, header := range headers {
			col, ok := colOf[header]
			if !ok {
				continue
			}
			value := trimStringValue(rowValues[header])
			if isBlankValue(value) && headerIsTimestamp(header) {
				value = time.Now().Format(timestampLayout)
			}
			// ID auto-fill only for true single-row appends: a multi-line PO
			// must not hand a sequential ID to every item line.
			if single && isBlankValue(value) && headerIsID(header) {
				value = nextIDValue(f, sheet, col, rowIdx)
			}
			writeCell(f, sheet, col, rowIdx, value)
		}

		if single && !styleCopied {
			applyDefaultBoxBorder(f, sheet, rowIdx, startCol, endCol)
		}
	}

	if !single && firstRow <= lastRow {
		applyGroupOutlineBorder(f, sheet, firstRow, lastRow, startCol, endCol)
	}

	stampPurchaseReason(f, sheet, firstRow, lastRow, opts)

	if err := f.SaveAs(path); err != nil {
		return "", classifySaveError(path, err)
	}
	return backupPath, nil
}

// UpdateSheetRows applies row edits, deletions, and insertions in one locked
// pass. When every input normalizes away it returns ("", nil) without taking
// a backup or touching the workbook's signature.
func UpdateSheetRows(path, sheet string, headers []string, updates []RowUpdate, opts UpdateOptions, cfg Config) (string, error) {
	var normalizedUpdates []RowUpdate
	for _, update := range updates {
		if update.Row <= 1 {
			continue
		}
		normalizedUpdates = append(normalizedUpdates, update)
	}

	deleteSet := make(map[int]bool)
	for _, row := range opts.Deletes {
		if row > 1 {
			deleteSet[row] = true
		}
	}
	deletes := make([]int, 0, len(deleteSet))
	for row := range deleteSet {
		deletes = append(deletes, row)
	}
	// Descending, so earlier deletions cannot shift later row numbers.
	sort.Sort(sort.Reverse(sort.IntSlice(deletes)))

	var newRows []Record
	for _, raw := range opts.NewRows {
		normalized := make(Record, len(headers))
		hasValue := false
		for _, header := range headers {
			value := normalizeEditorValue(raw[header])
			normalized[header] = value
			if !isBlankValue(value) {
				hasValue = true
			}
		}
		if hasValue {
			newRows = append(newRows, normalized)
		}
	}

	if len(normalizedUpdates) == 0 && len(deletes) == 0 && len(newRows) == 0 {
		return "", nil
	}

	guard, err := AcquireLock(path, cfg.LockTimeout, cfg.LockStaleAfter)
	if err != nil {
		return "", err
	}
	defer guard.Release()

	backupPath, backupErr := CreateBackup(path, opts.BackupDir, opts.KeepBackups, cfg)
	if backupErr != nil {
		AppendRuntimeLog("WARN", "backup", backupErr.Error())
		backupPath = ""
	}

	f, err := OpenWorkbook(path, cfg)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if !sheetExists(f, sheet) {
		return "", &OpError{Op: "update", Path: path, Err: ErrSheetNotFound}
	}

	sheetRows, err := f.GetRows(sheet)
	if err != nil {
		return "", &OpError{Op: "update", Path: path, Err: err}
	}
	colOf := reconcileHeaders(f, sheet, headers, sheetRows)

	for _, update := range normalizedUpdates {
		if deleteSet[update.Row] {
			continue
		}
		for _, header := range headers {
			col, ok := colOf[header]
			if !ok {
				continue
			}
			writeCell(f, sheet, col, update.Row, normalizeEditorValue(update.Values[header]))
		}
	}

	// Updates can write past the sheet's original extent; deletes must see
	// those rows too.
	maxRow := len(sheetRows)
	for _, update := range normalizedUpdates {
		if !deleteSet[update.Row] && update.Row > maxRow {
			maxRow = update.Row
		}
	}
	for _, row := range deletes {
		if row > maxRow {
			continue
		}
		if err := f.RemoveRow(sheet, row); err != nil {
			return "", &OpError{Op: "update", Path: path, Err: err}
		}
		maxRow--
	}

	if len(newRows) > 0 {
		refreshed, err := f.GetRows(sheet)
		if err != nil {
			return "", &OpError{Op: "update", Path: path, Err: err}
		}
		rowColumns := headerColumns(headers, colOf)
		startCol, endCol := columnSpan(rowColumns)
		firstRow := findNextWriteRow(refreshed, rowColumns)

		for offset, rowValues := range newRows {
			rowIdx := firstRow + offset
			styleCopied := copyPreviousRowStyle(f, sheet, rowIdx, startCol, endCol)
			for _, header := range headers {
				col, ok := colOf[header]
				if !ok {
					continue
				}
				value := rowValues[header]
				if isBlankValue(value) && headerIsTimestamp(header) {
					value = time.Now().Format(timestampLayout)
				}
				if isBlankValue(value) && headerIsID(header) {
					value = nextIDValue(f, sheet, col, rowIdx)
				}
				writeCell(f, sheet, col, rowIdx, value)
			}
			if !styleCopied {
				applyDefaultBoxBorder(f, sheet, rowIdx, startCol, endCol)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", classifySaveError(path, err)
	}
	return backupPath, nil
}

func sheetExists(f *excelize.File, sheet string) bool {
	for _, name := range f.GetSheetList() {
		if name == sheet {
			return true
		}
	}
	return false
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) {
	for i, header := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), header)
	}
}

// reconcileHeaders merges the desired headers with the worksheet's existing
// header row: a blank row is replaced outright; otherwise existing headers
// win and unknown desired headers are appended as trailing columns. The
// header row is sized out to the sheet's widest row first, so a blank header
// cell above a populated data column holds its position (as "Column N") and
// new headers land past the data. Returns the header -> 1-based column
// mapping.
func reconcileHeaders(f *excelize.File, sheet string, desired []string, sheetRows [][]string) map[string]int {
	var existing []string
	if len(sheetRows) == 0 || rowIsBlank(sheetRows[0]) {
		writeHeaderRow(f, sheet, desired)
		existing = append([]string(nil), desired...)
	} else {
		existing = SanitizeHeaders(paddedHeaderRow(sheetRows))
	}

	colOf := make(map[string]int, len(existing)+len(desired))
	for i, header := range existing {
		colOf[header] = i + 1
	}
	nextCol := len(existing) + 1
	for _, header := range desired {
		if _, ok := colOf[header]; ok {
			continue
		}
		f.SetCellValue(sheet, cellName(nextCol, 1), header)
		colOf[header] = nextCol
		nextCol++
	}
	return colOf
}

// paddedHeaderRow returns the first row extended to the sheet's widest row.
// Cell snapshots drop trailing empty cells per row, which would otherwise
// make blank header cells over populated data columns disappear.
func paddedHeaderRow(sheetRows [][]string) []string {
	maxCols := 0
	for _, row := range sheetRows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	row := make([]string, maxCols)
	copy(row, sheetRows[0])
	return row
}

func headerColumns(headers []string, colOf map[string]int) []int {
	columns := make([]int, 0, len(headers))
	for _, header := range headers {
		if col, ok := colOf[header]; ok {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		columns = []int{1}
	}
	return columns
}

func columnSpan(columns []int) (int, int) {
	start, end := columns[0], columns[0]
	for _, col := range columns[1:] {
		if col < start {
			start = col
		}
		if col > end {
			end = col
		}
	}
	return start, end
}

// findNextWriteRow returns the first row safe to write: it walks up from the
// sheet's last row past trailing rows that are blank in the relevant columns,
// so deletions at the bottom do not leave gaps.
func findNextWriteRow(sheetRows [][]string, columns []int) int {
	last := len(sheetRows)
	if last < 1 {
		last = 1
	}
	for last > 1 && !rowHasValues(sheetRows, last, columns) {
		last--
	}
	return last + 1
}

func rowHasValues(sheetRows [][]string, rowNum int, columns []int) bool {
	if rowNum < 1 || rowNum > len(sheetRows) {
		return false
	}
	row := sheetRows[rowNum-1]
	for _, col := range columns {
		if col-1 < len(row) && strings.TrimSpace(row[col-1]) != "" {
			return true
		}
	}
	return false
}

// nextIDValue derives max(existing numeric values in the column)+1, reading
// live cell values so rows written earlier in the same mutation count.
func nextIDValue(f *excelize.File, sheet string, col, belowRow int) string {
	maxValue := 0
	seen := false
	for row := 2; row < belowRow; row++ {
		text, err := f.GetCellValue(sheet, cellName(col, row))
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		value, err := strconv.Atoi(text)
		if err != nil {
			parsed, floatErr := strconv.ParseFloat(text, 64)
			if floatErr != nil || parsed != math.Trunc(parsed) {
				continue
			}
			value = int(parsed)
		}
		if !seen || value > maxValue {
			maxValue = value
			seen = true
		}
	}
	if !seen {
		return "1"
	}
	return strconv.Itoa(maxValue + 1)
}

func stampPurchaseReason(f *excelize.File, sheet string, firstRow, lastRow int, opts AppendOptions) {
	reason := strings.TrimSpace(opts.PurchaseReason)
	if reason == "" || opts.PurchaseReasonColumn <= 0 || firstRow > lastRow {
		return
	}
	col := opts.PurchaseReasonColumn
	target := cellName(col, firstRow)
	if firstRow > 1 {
		if styleID, err := f.GetCellStyle(sheet, cellName(col, firstRow-1)); err == nil && styleID != 0 {
			f.SetCellStyle(sheet, target, target, styleID)
		}
	}
	f.SetCellValue(sheet, target, reason)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeCell(f *excelize.File, sheet string, col, row int, value any) {
	cell := cellName(col, row)
	switch v := value.(type) {
	case nil:
		f.SetCellValue(sheet, cell, nil)
	case string:
		if v == "" {
			f.SetCellValue(sheet, cell, nil)
		} else {
			f.SetCellValue(sheet, cell, v)
		}
	case time.Time:
		f.SetCellValue(sheet, cell, v.Format(timestampLayout))
	default:
		f.SetCellValue(sheet, cell, v)
	}
}

func trimStringValue(value any) any {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return value
}

// normalizeEditorValue coerces editor-supplied values into what the sheet
// should store: trimmed strings, integral floats as ints, times formatted.
func normalizeEditorValue(value any) any {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.Format(timestampLayout)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v)
		}
		return v
	default:
		return v
	}
}

func isBlankValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func classifySaveError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &OpError{Op: "save", Path: path, Err: ErrWorkbookLocked}
	}
	return &OpError{Op: "save", Path: path, Err: err}
}
