package potrol

import "github.com/xuri/excelize/v2"

// copyPreviousRowStyle copies cell styling from the row directly above, for
// visual consistency of appended rows. Rows 1 and 2 have no copyable
// predecessor (row 1 is the header).
func copyPreviousRowStyle(f *excelize.File, sheet string, targetRow, startCol, endCol int) bool {
	sourceRow := targetRow - 1
	if sourceRow < 2 {
		return false
	}

	copied := false
	for col := startCol; col <= endCol; col++ {
		styleID, err := f.GetCellStyle(sheet, cellName(col, sourceRow))
		if err != nil || styleID == 0 {
			continue
		}
		target := cellName(col, targetRow)
		if f.SetCellStyle(sheet, target, target, styleID) == nil {
			copied = true
		}
	}
	return copied
}

// applyDefaultBoxBorder draws a thin box around each cell of a single
// appended row that had no predecessor style to copy.
func applyDefaultBoxBorder(f *excelize.File, sheet string, row, startCol, endCol int) {
	styleID, err := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return
	}
	f.SetCellStyle(sheet, cellName(startCol, row), cellName(endCol, row), styleID)
}

// applyGroupOutlineBorder draws one thin outline around the whole row range
// of a multi-row PO, so its item lines read as a single group.
func applyGroupOutlineBorder(f *excelize.File, sheet string, startRow, endRow, startCol, endCol int) {
	type edges struct {
		left, right, top, bottom bool
	}
	styleIDs := make(map[edges]int)

	for row := startRow; row <= endRow; row++ {
		for col := startCol; col <= endCol; col++ {
			e := edges{
				left:   col == startCol,
				right:  col == endCol,
				top:    row == startRow,
				bottom: row == endRow,
			}
			styleID, ok := styleIDs[e]
			if !ok {
				var borders []excelize.Border
				if e.left {
					borders = append(borders, excelize.Border{Type: "left", Color: "000000", Style: 1})
				}
				if e.right {
					borders = append(borders, excelize.Border{Type: "right", Color: "000000", Style: 1})
				}
				if e.top {
					borders = append(borders, excelize.Border{Type: "top", Color: "000000", Style: 1})
				}
				if e.bottom {
					borders = append(borders, excelize.Border{Type: "bottom", Color: "000000", Style: 1})
				}
				created, err := f.NewStyle(&excelize.Style{Border: borders})
				if err != nil {
					continue
				}
				styleID = created
				styleIDs[e] = styleID
			}
			cell := cellName(col, row)
			f.SetCellStyle(sheet, cell, cell, styleID)
		}
	}
}
