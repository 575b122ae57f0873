// Package potrol implements a shared-Excel-workbook purchase order store.
//
// Multiple application instances on the same machine or network share
// coordinate through the filesystem alone: an advisory lock file serializes
// mutations, a JSON sidecar ledger hands out tentative PO numbers, and every
// mutation takes a rotating backup before touching the workbook.
package potrol

import "time"

// DefaultSheetName is the worksheet used when none is configured.
const DefaultSheetName = "PO Log"

// DefaultHeaders is the canonical column set for a PO log worksheet.
var DefaultHeaders = []string{
	"PO Number",
	"Date",
	"Vendor/Store",
	"Department",
	"Location",
	"Items Being Purchased",
	"Price Per Item",
	"Quantity",
	"Sub Total",
	"Shipping Cost",
	"Sales Tax",
	"Grand Total",
}

// Backup retention bounds.
const (
	MinBackupKeepLatest = 1
	MaxBackupKeepLatest = 25
)

// Config carries the tunables shared by the workbook accessor, scanner,
// ledger, lock, and mutation engine.
type Config struct {
	// Prefix and StartNumber define the PO numbering scheme, e.g. "IT" + 579.
	Prefix      string
	StartNumber int

	// LockTimeout bounds a full save's lock acquisition; ReservationLockTimeout
	// is the shorter bound used for ledger operations. A lock file older than
	// LockStaleAfter is treated as abandoned and reclaimed.
	LockTimeout            time.Duration
	LockStaleAfter         time.Duration
	ReservationLockTimeout time.Duration

	// ReservationStale is how long a ledger entry stays valid without refresh.
	ReservationStale time.Duration

	// Transient open/copy failures are retried this many times with a fixed
	// delay. Invalid-format failures are never retried.
	OpenRetryCount int
	OpenRetryDelay time.Duration
	CopyRetryCount int
	CopyRetryDelay time.Duration

	// Scanner bounds: cache capacity, header discovery depth, the empty-cell
	// streak that ends a column scan once a match was seen, and the hard row
	// cap for huge sheets.
	CacheMaxKeys         int
	HeaderScanRows       int
	ScanEmptyStreakBreak int
	ScanHardRowLimit     int

	// BackupKeepLatest is the default retention count, clamped to
	// [MinBackupKeepLatest, MaxBackupKeepLatest] at use sites.
	BackupKeepLatest int

	// PurchaseReasonColumn is the 1-based column stamped with the purchase
	// reason on a PO's first row. Zero disables the stamp.
	PurchaseReasonColumn int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:                 "IT",
		StartNumber:            579,
		LockTimeout:            12 * time.Second,
		LockStaleAfter:         120 * time.Second,
		ReservationLockTimeout: 2200 * time.Millisecond,
		ReservationStale:       900 * time.Second,
		OpenRetryCount:         3,
		OpenRetryDelay:         350 * time.Millisecond,
		CopyRetryCount:         3,
		CopyRetryDelay:         150 * time.Millisecond,
		CacheMaxKeys:           32,
		HeaderScanRows:         25,
		ScanEmptyStreakBreak:   12000,
		ScanHardRowLimit:       350000,
		BackupKeepLatest:       1,
		PurchaseReasonColumn:   10,
	}
}

// clampKeepLatest normalizes a backup retention count into the allowed range.
func clampKeepLatest(keep int) int {
	if keep < MinBackupKeepLatest {
		return MinBackupKeepLatest
	}
	if keep > MaxBackupKeepLatest {
		return MaxBackupKeepLatest
	}
	return keep
}
