package potrol

import (
	"errors"
	"fmt"
	"strings"
)

// ErrWorkbookBusy indicates the write lock could not be acquired before the
// timeout. The condition is user-retryable, not retried automatically.
var ErrWorkbookBusy = errors.New("workbook is busy because another save is in progress; wait a moment and try again")

// ErrInvalidFormat indicates the workbook path is not a supported xlsx-family
// file. Never retried.
var ErrInvalidFormat = errors.New("invalid workbook format")

// ErrWorkbookLocked indicates the OS refused the write, typically because the
// file is open in a spreadsheet editor.
var ErrWorkbookLocked = errors.New("workbook is locked by another program")

// ErrSheetNotFound indicates the requested worksheet does not exist.
var ErrSheetNotFound = errors.New("worksheet not found")

// OpError wraps a failure with the operation and workbook path it belongs to.
type OpError struct {
	Op   string // "open", "lock", "save", "backup", "restore", "reserve"
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// ValidationError collects entry problems rejected before any file mutation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid entry"
	}
	return "invalid entry: " + strings.Join(e.Problems, "; ")
}

// IsBusy reports whether err is a lock-timeout failure.
func IsBusy(err error) bool {
	return errors.Is(err, ErrWorkbookBusy)
}
