package potrol

import (
	"os"
	"strings"
)

// Store wires the scanner, ledger, and session identity into the surface the
// UI and CLI layers call. All methods are synchronous and cross-process safe
// through the workbook write lock.
type Store struct {
	cfg     Config
	scanner *Scanner
	ledger  *Ledger
	session SessionIdentity
}

// NewStore builds a Store with a fresh scanner cache and session identity.
func NewStore(cfg Config) *Store {
	scanner := NewScanner(cfg)
	return &Store{
		cfg:     cfg,
		scanner: scanner,
		ledger:  NewLedger(cfg, scanner),
		session: NewSessionIdentity(),
	}
}

// Config returns the store's configuration.
func (s *Store) Config() Config { return s.cfg }

// Session returns this process run's identity.
func (s *Store) Session() SessionIdentity { return s.session }

// NextPONumber derives the next free PO identifier for the workbook.
func (s *Store) NextPONumber(path, sheet string) (string, error) {
	return s.scanner.NextPONumber(path, sheet)
}

// PONumberExists reports whether a PO identifier is already committed.
func (s *Store) PONumberExists(path, poNumber, sheet string) (bool, error) {
	return s.scanner.PONumberExists(path, poNumber, sheet)
}

// Reserve claims (or refreshes) this session's tentative next PO number.
func (s *Store) Reserve(path, sheet string) (string, error) {
	return s.ledger.Reserve(path, s.session, sheet)
}

// ReleaseReservation drops this session's reservation, if any.
func (s *Store) ReleaseReservation(path string) error {
	return s.ledger.Release(path, s.session.ID)
}

// ActiveReservations counts live reservations across sessions (diagnostics).
func (s *Store) ActiveReservations(path, sheet string) (int, error) {
	return s.ledger.ActiveCount(path, sheet)
}

// AppendRecord appends rows under the write lock. See AppendRecord.
func (s *Store) AppendRecord(path, sheet string, headers []string, rows []Record, opts AppendOptions) (string, error) {
	return AppendRecord(path, sheet, headers, rows, opts, s.cfg)
}

// UpdateSheetRows applies edits/deletes/inserts under the write lock. See
// UpdateSheetRows.
func (s *Store) UpdateSheetRows(path, sheet string, headers []string, updates []RowUpdate, opts UpdateOptions) (string, error) {
	return UpdateSheetRows(path, sheet, headers, updates, opts, s.cfg)
}

// CreateBackup takes a rotating backup of the workbook.
func (s *Store) CreateBackup(path, backupDir string, keepLatest int) (string, error) {
	return CreateBackup(path, backupDir, keepLatest, s.cfg)
}

// SavePO is the full save transaction: validate the entry, create the
// workbook if needed, then under one lock acquisition confirm the PO number
// is still free (falling back to the next available), append the composed
// rows, and finally drop this session's reservation.
func (s *Store) SavePO(path, sheet string, entry Entry, backupDir string, keepBackups int) (string, string, error) {
	rows, err := BuildEntryRows(entry)
	if err != nil {
		return "", "", err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		if err := CreateWorkbook(path, sheet, DefaultHeaders); err != nil {
			return "", "", err
		}
	}

	guard, err := AcquireLock(path, s.cfg.LockTimeout, s.cfg.LockStaleAfter)
	if err != nil {
		return "", "", err
	}
	defer guard.Release()

	poNumber := strings.TrimSpace(entry.PONumber)
	if poNumber != "" {
		taken, err := s.scanner.PONumberExists(path, poNumber, sheet)
		if err != nil {
			return "", "", err
		}
		if taken {
			poNumber = ""
		}
	}
	if poNumber == "" {
		next, err := s.scanner.NextPONumber(path, sheet)
		if err != nil {
			return "", "", err
		}
		poNumber = next
	}
	rows[0]["PO Number"] = poNumber

	// The purchase reason is stamped positionally, not header-mapped, and
	// only onto sheets that already carry a full PO layout. A missing sheet
	// reads as the default layout, which qualifies.
	sheetHeaders, _, _, err := LoadSheetData(path, sheet, s.cfg)
	if err != nil {
		return "", "", err
	}
	opts := AppendOptions{
		BackupDir:   backupDir,
		KeepBackups: keepBackups,
	}
	if hasPOSchema(sheetHeaders) {
		opts.PurchaseReason = entry.Reason
		opts.PurchaseReasonColumn = s.cfg.PurchaseReasonColumn
	}
	backupPath, err := appendRecordLocked(path, sheet, DefaultHeaders, rows, opts, s.cfg)
	guard.Release()
	if err != nil {
		return "", backupPath, err
	}

	// Reservation cleanup is best-effort; the committed row is the authority.
	if releaseErr := s.ledger.Release(path, s.session.ID); releaseErr != nil {
		AppendRuntimeLog("WARN", "reservation", releaseErr.Error())
	}
	return poNumber, backupPath, nil
}
