package potrol

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	cfg := DefaultConfig()
	return NewLedger(cfg, NewScanner(cfg))
}

func TestReserveMissingWorkbookUsesStart(t *testing.T) {
	ledger := newTestLedger(t)
	path := filepath.Join(t.TempDir(), "nope.xlsx")

	got, err := ledger.Reserve(path, SessionIdentity{ID: "s1", Owner: "a@b"}, "PO Log")
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if got != "IT579" {
		t.Errorf("got %q, want IT579", got)
	}
	if _, err := os.Stat(ReservationPath(path)); !os.IsNotExist(err) {
		t.Error("ledger sidecar should not be created for a missing workbook")
	}
}

func TestReserveHandsOutDistinctNumbers(t *testing.T) {
	ledger := newTestLedger(t)
	path := newTestWorkbook(t, "PO Log", DefaultHeaders)
	setCells(t, path, "PO Log", map[string]interface{}{"A2": "IT578"})

	s1 := SessionIdentity{ID: "session-1", Owner: "alice@host"}
	s2 := SessionIdentity{ID: "session-2", Owner: "bob@host"}

	first, err := ledger.Reserve(path, s1, "PO Log")
	if err != nil {
		t.Fatalf("first Reserve failed: %v", err)
	}
	if first != "IT579" {
		t.Errorf("first reservation = %q, want IT579", first)
	}

	second, err := ledger.Reserve(path, s2, "PO Log")
	if err != nil {
		t.Fatalf("second Reserve failed: %v", err)
	}
	if second != "IT580" {
		t.Errorf("second reservation = %q, want IT580", second)
	}

	// Re-reserving refreshes the same number for the same session.
	again, err := ledger.Reserve(path, s1, "PO Log")
	if err != nil {
		t.Fatalf("re-Reserve failed: %v", err)
	}
	if again != first {
		t.Errorf("session-1 got %q on refresh, want %q", again, first)
	}

	count, err := ledger.ActiveCount(path, "PO Log")
	if err != nil {
		t.Fatalf("ActiveCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("ActiveCount = %d, want 2", count)
	}
}

func TestReleaseDropsReservation(t *testing.T) {
	ledger := newTestLedger(t)
	path := newTestWorkbook(t, "PO Log", DefaultHeaders)

	s1 := SessionIdentity{ID: "session-1", Owner: "alice@host"}
	if _, err := ledger.Reserve(path, s1, "PO Log"); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	if err := ledger.Release(path, s1.ID); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	count, err := ledger.ActiveCount(path, "PO Log")
	if err != nil {
		t.Fatalf("ActiveCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("ActiveCount after release = %d, want 0", count)
	}

	// Releasing a session that holds nothing is a no-op.
	if err := ledger.Release(path, "never-reserved"); err != nil {
		t.Errorf("Release of unknown session failed: %v", err)
	}
}

func TestReserveSkipsNumbersOtherSessionsHold(t *testing.T) {
	ledger := newTestLedger(t)
	path := newTestWorkbook(t, "PO Log", DefaultHeaders)

	s1 := SessionIdentity{ID: "session-1", Owner: "alice@host"}
	s2 := SessionIdentity{ID: "session-2", Owner: "bob@host"}
	s3 := SessionIdentity{ID: "session-3", Owner: "carol@host"}

	if _, err := ledger.Reserve(path, s1, "PO Log"); err != nil { // IT579
		t.Fatalf("Reserve s1 failed: %v", err)
	}
	if _, err := ledger.Reserve(path, s2, "PO Log"); err != nil { // IT580
		t.Fatalf("Reserve s2 failed: %v", err)
	}
	if err := ledger.Release(path, s1.ID); err != nil {
		t.Fatalf("Release s1 failed: %v", err)
	}

	// session-2 still holds IT580, so the next assignment moves past it
	// rather than reusing the released IT579.
	got, err := ledger.Reserve(path, s3, "PO Log")
	if err != nil {
		t.Fatalf("Reserve s3 failed: %v", err)
	}
	if got != "IT581" {
		t.Errorf("session-3 got %q, want IT581", got)
	}
}

func TestReserveExpiresStaleEntries(t *testing.T) {
	cfg := DefaultConfig()
	ledger := NewLedger(cfg, NewScanner(cfg))
	path := newTestWorkbook(t, "PO Log", DefaultHeaders)

	base := time.Now()
	ledger.now = func() time.Time { return base }

	if _, err := ledger.Reserve(path, SessionIdentity{ID: "old", Owner: "x"}, "PO Log"); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	// Past the staleness window the abandoned entry no longer blocks reuse.
	ledger.now = func() time.Time { return base.Add(cfg.ReservationStale + time.Minute) }
	got, err := ledger.Reserve(path, SessionIdentity{ID: "fresh", Owner: "y"}, "PO Log")
	if err != nil {
		t.Fatalf("Reserve after expiry failed: %v", err)
	}
	if got != "IT579" {
		t.Errorf("got %q, want IT579 once the stale entry expired", got)
	}
	count, err := ledger.ActiveCount(path, "PO Log")
	if err != nil {
		t.Fatalf("ActiveCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("ActiveCount = %d, want 1", count)
	}
}

func TestReserveDropsCommittedReservation(t *testing.T) {
	ledger := newTestLedger(t)
	path := newTestWorkbook(t, "PO Log", DefaultHeaders)

	s1 := SessionIdentity{ID: "session-1", Owner: "alice@host"}
	first, err := ledger.Reserve(path, s1, "PO Log")
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if first != "IT579" {
		t.Fatalf("first reservation = %q, want IT579", first)
	}

	// Once the number lands in the workbook the reservation is spent and the
	// same session moves on to the next one.
	setCells(t, path, "PO Log", map[string]interface{}{"A2": "IT579"})
	second, err := ledger.Reserve(path, s1, "PO Log")
	if err != nil {
		t.Fatalf("Reserve after commit failed: %v", err)
	}
	if second != "IT580" {
		t.Errorf("got %q after commit, want IT580", second)
	}
}
