package potrol

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func newTestWorkbook(t *testing.T, sheet string, headers []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "IT POs.xlsx")
	if err := CreateWorkbook(path, sheet, headers); err != nil {
		t.Fatalf("CreateWorkbook failed: %v", err)
	}
	return path
}

func setCells(t *testing.T, path, sheet string, cells map[string]interface{}) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	for cell, value := range cells {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("SetCellValue(%s) failed: %v", cell, err)
		}
	}
	if err := f.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func TestParsePONumber(t *testing.T) {
	tests := []struct {
		value    string
		prefix   string
		expected int
		ok       bool
	}{
		{"IT579", "IT", 579, true},
		{"it579", "IT", 579, true},
		{"IT-0045", "IT", 45, true},
		{"IT_12", "IT", 12, true},
		{"IT/7", "IT", 7, true},
		{"'IT579", "IT", 579, true},
		{"  IT 579  ", "IT", 579, true},
		{"IT", "IT", 0, false},
		{"PO579", "IT", 0, false},
		{"579", "IT", 0, false},
		{"ITEM", "IT", 0, false},
		{"", "IT", 0, false},
	}
	for _, tt := range tests {
		seq, ok := ParsePONumber(tt.value, tt.prefix)
		if ok != tt.ok || seq != tt.expected {
			t.Errorf("ParsePONumber(%q, %q) = (%d, %v), want (%d, %v)",
				tt.value, tt.prefix, seq, ok, tt.expected, tt.ok)
		}
	}
}

func TestCollectSequencesRecoversFromAnyColumn(t *testing.T) {
	path := newTestWorkbook(t, "PO Log", []string{"PO Number", "Items Being Purchased"})
	setCells(t, path, "PO Log", map[string]interface{}{
		"A2": "IT045",        // column A legacy fallback, zero-padded
		"B2": "unrelated",    // noise
		"A3": "not a number", // noise resets the streak
		"A4": "it123",        // case-insensitive
	})

	scanner := NewScanner(DefaultConfig())
	sequences, err := scanner.CollectSequences(path, "IT", "PO Log")
	if err != nil {
		t.Fatalf("CollectSequences failed: %v", err)
	}
	if len(sequences) != 2 {
		t.Fatalf("expected 2 sequences, got %v", sequences)
	}
	for _, want := range []int{45, 123} {
		if _, ok := sequences[want]; !ok {
			t.Errorf("missing sequence %d in %v", want, sequences)
		}
	}
}

func TestCollectSequencesFindsAliasedHeaderColumn(t *testing.T) {
	path := newTestWorkbook(t, "PO Log", []string{"Date", "Vendor", "PO#"})
	setCells(t, path, "PO Log", map[string]interface{}{
		"C2": "IT600",
		"C3": "IT601",
	})

	scanner := NewScanner(DefaultConfig())
	sequences, err := scanner.CollectSequences(path, "IT", "PO Log")
	if err != nil {
		t.Fatalf("CollectSequences failed: %v", err)
	}
	for _, want := range []int{600, 601} {
		if _, ok := sequences[want]; !ok {
			t.Errorf("missing sequence %d in %v", want, sequences)
		}
	}
}

func TestCollectSequencesCacheInvalidatesOnSignatureChange(t *testing.T) {
	path := newTestWorkbook(t, "PO Log", []string{"PO Number"})
	setCells(t, path, "PO Log", map[string]interface{}{"A2": "IT600"})

	scanner := NewScanner(DefaultConfig())
	first, err := scanner.CollectSequences(path, "IT", "PO Log")
	if err != nil {
		t.Fatalf("CollectSequences failed: %v", err)
	}
	if _, ok := first[600]; !ok {
		t.Fatalf("expected 600 in %v", first)
	}

	// An external write changes the signature and must bust the cache.
	setCells(t, path, "PO Log", map[string]interface{}{"A3": "IT601"})
	second, err := scanner.CollectSequences(path, "IT", "PO Log")
	if err != nil {
		t.Fatalf("CollectSequences after write failed: %v", err)
	}
	if _, ok := second[601]; !ok {
		t.Errorf("expected 601 after external write, got %v", second)
	}
}

func TestNextPONumber(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prefix = "IT"
	cfg.StartNumber = 579

	t.Run("missing workbook uses start", func(t *testing.T) {
		scanner := NewScanner(cfg)
		got, err := scanner.NextPONumber(filepath.Join(t.TempDir(), "nope.xlsx"), "")
		if err != nil {
			t.Fatalf("NextPONumber failed: %v", err)
		}
		if got != "IT579" {
			t.Errorf("got %q, want IT579", got)
		}
	})

	t.Run("empty workbook uses start", func(t *testing.T) {
		path := newTestWorkbook(t, "PO Log", []string{"PO Number"})
		scanner := NewScanner(cfg)
		got, err := scanner.NextPONumber(path, "PO Log")
		if err != nil {
			t.Fatalf("NextPONumber failed: %v", err)
		}
		if got != "IT579" {
			t.Errorf("got %q, want IT579", got)
		}
	})

	t.Run("max below start floors at start", func(t *testing.T) {
		path := newTestWorkbook(t, "PO Log", []string{"PO Number"})
		setCells(t, path, "PO Log", map[string]interface{}{"A2": "IT12"})
		scanner := NewScanner(cfg)
		got, err := scanner.NextPONumber(path, "PO Log")
		if err != nil {
			t.Fatalf("NextPONumber failed: %v", err)
		}
		if got != "IT579" {
			t.Errorf("got %q, want IT579", got)
		}
	})

	t.Run("max above start increments", func(t *testing.T) {
		path := newTestWorkbook(t, "PO Log", []string{"PO Number"})
		setCells(t, path, "PO Log", map[string]interface{}{"A2": "IT700", "A3": "IT650"})
		scanner := NewScanner(cfg)
		got, err := scanner.NextPONumber(path, "PO Log")
		if err != nil {
			t.Fatalf("NextPONumber failed: %v", err)
		}
		if got != "IT701" {
			t.Errorf("got %q, want IT701", got)
		}
	})
}

func TestPONumberExists(t *testing.T) {
	path := newTestWorkbook(t, "PO Log", []string{"PO Number"})
	setCells(t, path, "PO Log", map[string]interface{}{"A2": "IT600"})

	scanner := NewScanner(DefaultConfig())
	exists, err := scanner.PONumberExists(path, "IT600", "PO Log")
	if err != nil {
		t.Fatalf("PONumberExists failed: %v", err)
	}
	if !exists {
		t.Error("IT600 should exist")
	}

	exists, err = scanner.PONumberExists(path, "IT601", "PO Log")
	if err != nil {
		t.Fatalf("PONumberExists failed: %v", err)
	}
	if exists {
		t.Error("IT601 should not exist")
	}

	// Malformed identifiers are never present.
	exists, err = scanner.PONumberExists(path, "garbage", "PO Log")
	if err != nil {
		t.Fatalf("PONumberExists failed: %v", err)
	}
	if exists {
		t.Error("malformed PO number should not exist")
	}
}
