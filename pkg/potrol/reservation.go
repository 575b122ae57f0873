package potrol

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReservationEntry is one session's tentative claim on a PO number.
type ReservationEntry struct {
	PONumber  string  `json:"po_number"`
	Owner     string  `json:"owner"`
	UpdatedTS float64 `json:"updated_ts"`
}

// ReservationPath returns the ledger sidecar for a workbook:
// ".<workbook-name>.po_reservations.json" in the same directory.
func ReservationPath(path string) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, "."+name+".po_reservations.json")
}

// Ledger hands out tentative next-PO numbers to concurrent sessions through
// a JSON sidecar, so two open entry forms never propose the same number. The
// workbook itself stays the final authority: a reservation whose sequence
// shows up committed is discarded.
type Ledger struct {
	cfg     Config
	scanner *Scanner
	now     func() time.Time
}

// NewLedger returns a Ledger that validates reservations against the given
// scanner's view of the workbook.
func NewLedger(cfg Config, scanner *Scanner) *Ledger {
	return &Ledger{cfg: cfg, scanner: scanner, now: time.Now}
}

// Reserve assigns (or refreshes) the session's tentative PO number under the
// write lock and persists the updated ledger. A missing workbook yields
// prefix+start without touching the ledger.
func (l *Ledger) Reserve(path string, session SessionIdentity, sheet string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("%s%d", l.cfg.Prefix, l.cfg.StartNumber), nil
	}

	guard, err := AcquireLock(path, l.cfg.ReservationLockTimeout, l.cfg.LockStaleAfter)
	if err != nil {
		return "", err
	}
	defer guard.Release()

	return l.reserveLocked(path, session, sheet)
}

func (l *Ledger) reserveLocked(path string, session SessionIdentity, sheet string) (string, error) {
	nowTS := float64(l.now().UnixNano()) / float64(time.Second)

	existing, err := l.scanner.CollectSequences(path, l.cfg.Prefix, sheet)
	if err != nil {
		return "", err
	}
	raw := readJSONMap[ReservationEntry](ReservationPath(path))
	active, maxReserved, hasReserved := cleanupReservations(raw, existing, l.cfg.Prefix, nowTS, l.cfg.ReservationStale.Seconds())

	maxExisting := l.cfg.StartNumber - 1
	for seq := range existing {
		if seq > maxExisting {
			maxExisting = seq
		}
	}
	next := maxExisting + 1
	if next < l.cfg.StartNumber {
		next = l.cfg.StartNumber
	}
	if hasReserved && maxReserved+1 > next {
		next = maxReserved + 1
	}

	assigned := next
	if entry, ok := active[session.ID]; ok {
		if seq, valid := ParsePONumber(entry.PONumber, l.cfg.Prefix); valid {
			if _, taken := existing[seq]; !taken {
				assigned = seq
			}
		}
	}

	active[session.ID] = ReservationEntry{
		PONumber:  fmt.Sprintf("%s%d", l.cfg.Prefix, assigned),
		Owner:     strings.TrimSpace(session.Owner),
		UpdatedTS: nowTS,
	}
	if err := writeJSONAtomic(ReservationPath(path), active, true); err != nil {
		return "", &OpError{Op: "reserve", Path: path, Err: err}
	}
	return fmt.Sprintf("%s%d", l.cfg.Prefix, assigned), nil
}

// Release drops the session's reservation. No-op when the workbook is gone
// or the session holds nothing.
func (l *Ledger) Release(path, sessionID string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	guard, err := AcquireLock(path, l.cfg.ReservationLockTimeout, l.cfg.LockStaleAfter)
	if err != nil {
		return err
	}
	defer guard.Release()

	reservations := readJSONMap[ReservationEntry](ReservationPath(path))
	if _, ok := reservations[sessionID]; !ok {
		return nil
	}
	delete(reservations, sessionID)
	if err := writeJSONAtomic(ReservationPath(path), reservations, true); err != nil {
		return &OpError{Op: "reserve", Path: path, Err: err}
	}
	return nil
}

// ActiveCount returns how many live reservations other sessions hold.
// Diagnostics only: it deliberately runs without the lock, so a concurrent
// writer can make the count momentarily stale.
func (l *Ledger) ActiveCount(path, sheet string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, nil
	}

	existing, err := l.scanner.CollectSequences(path, l.cfg.Prefix, sheet)
	if err != nil {
		return 0, err
	}
	nowTS := float64(l.now().UnixNano()) / float64(time.Second)
	raw := readJSONMap[ReservationEntry](ReservationPath(path))
	active, _, _ := cleanupReservations(raw, existing, l.cfg.Prefix, nowTS, l.cfg.ReservationStale.Seconds())
	return len(active), nil
}

// cleanupReservations drops entries that are malformed, unrefreshed past the
// staleness window, or already committed to the workbook, and reports the
// maximum surviving reserved sequence.
func cleanupReservations(
	reservations map[string]ReservationEntry,
	existing map[int]struct{},
	prefix string,
	nowTS, staleSeconds float64,
) (map[string]ReservationEntry, int, bool) {
	cleaned := make(map[string]ReservationEntry, len(reservations))
	maxReserved := 0
	hasReserved := false

	for sessionID, entry := range reservations {
		seq, ok := ParsePONumber(entry.PONumber, prefix)
		if !ok {
			continue
		}
		if entry.UpdatedTS <= 0 {
			continue
		}
		if nowTS-entry.UpdatedTS > staleSeconds {
			continue
		}
		if _, committed := existing[seq]; committed {
			continue
		}

		cleaned[sessionID] = ReservationEntry{
			PONumber:  fmt.Sprintf("%s%d", prefix, seq),
			Owner:     strings.TrimSpace(entry.Owner),
			UpdatedTS: entry.UpdatedTS,
		}
		if !hasReserved || seq > maxReserved {
			maxReserved = seq
			hasReserved = true
		}
	}
	return cleaned, maxReserved, hasReserved
}
