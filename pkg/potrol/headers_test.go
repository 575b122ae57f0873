package potrol

import (
	"reflect"
	"testing"
)

func TestSanitizeHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{
			name: "clean row untouched",
			raw:  []string{"PO Number", "Date", "Vendor/Store"},
			want: []string{"PO Number", "Date", "Vendor/Store"},
		},
		{
			name: "blanks become positional",
			raw:  []string{"PO Number", "", "  "},
			want: []string{"PO Number", "Column 2", "Column 3"},
		},
		{
			name: "duplicates get suffixes",
			raw:  []string{"Price", "Price", "Price"},
			want: []string{"Price", "Price (2)", "Price (3)"},
		},
		{
			name: "suffix collision keeps counting",
			raw:  []string{"Price", "Price (2)", "Price"},
			want: []string{"Price", "Price (2)", "Price (3)"},
		},
		{
			name: "whitespace trimmed before comparison",
			raw:  []string{" Date ", "Date"},
			want: []string{"Date", "Date (2)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeHeaders(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SanitizeHeaders(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeHeaderToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PO Number", "ponumber"},
		{"P.O. #", "po"},
		{"  po_number  ", "ponumber"},
		{"Vendor/Store", "vendorstore"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeHeaderToken(tt.in); got != tt.want {
			t.Errorf("normalizeHeaderToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindPOColumnIndexes(t *testing.T) {
	rows := [][]string{
		{"Date", "PO Number", "Vendor"},
		{"2024-01-05", "IT579", "ACME"},
	}
	got := findPOColumnIndexes(rows, 25)
	// Column A is always a candidate; the header scan adds column B.
	want := []int{0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("findPOColumnIndexes = %v, want %v", got, want)
	}

	if got := findPOColumnIndexes(nil, 25); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("empty sheet should still scan column A, got %v", got)
	}
}

func TestHasPOSchema(t *testing.T) {
	if !hasPOSchema(DefaultHeaders) {
		t.Error("the default layout is a full PO schema")
	}
	legacy := []string{"PO#", "Date", "Vendor", "Item", "Price", "QTY", "Sub Total", "Grand Total"}
	if !hasPOSchema(legacy) {
		t.Errorf("legacy aliases should qualify: %v", legacy)
	}
	partial := []string{"PO Number", "Date", "Vendor/Store", "Items Being Purchased"}
	if hasPOSchema(partial) {
		t.Errorf("a sheet missing totals columns is not a PO schema: %v", partial)
	}
	if hasPOSchema(nil) {
		t.Error("no headers, no schema")
	}
}

func TestHeaderIsID(t *testing.T) {
	for _, header := range []string{"PO Number", "po#", "PO #", "Record Number", "ID", "Employee ID"} {
		if !headerIsID(header) {
			t.Errorf("headerIsID(%q) should be true", header)
		}
	}
	for _, header := range []string{"Vendor/Store", "Paid", "Grand Total", "Description"} {
		if headerIsID(header) {
			t.Errorf("headerIsID(%q) should be false", header)
		}
	}
}

func TestHeaderIsTimestamp(t *testing.T) {
	for _, header := range []string{"Created", "Created At", "Timestamp", "Date Entered", "Entry Time"} {
		if !headerIsTimestamp(header) {
			t.Errorf("headerIsTimestamp(%q) should be true", header)
		}
	}
	for _, header := range []string{"Date", "PO Number", "Vendor/Store"} {
		if headerIsTimestamp(header) {
			t.Errorf("headerIsTimestamp(%q) should be false", header)
		}
	}
}
