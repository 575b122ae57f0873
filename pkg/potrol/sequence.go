package potrol

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ParsePONumber extracts the integer sequence from a PO identifier: optional
// leading quote, case-insensitive prefix, optional -/_// separator, zero-padded
// digits. Returns false for anything else.
func ParsePONumber(value, prefix string) (int, bool) {
	return compilePOPattern(prefix).parse(value)
}

type poPattern struct {
	re *regexp.Regexp
}

func compilePOPattern(prefix string) poPattern {
	expr := `^\s*'?` + regexp.QuoteMeta(strings.ToUpper(strings.TrimSpace(prefix))) + `\s*[-_/]?\s*0*(\d+)\s*$`
	return poPattern{re: regexp.MustCompile(expr)}
}

func (p poPattern) parse(value string) (int, bool) {
	match := p.re.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(value)))
	if match == nil {
		return 0, false
	}
	seq, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return seq, true
}

type sequenceCacheKey struct {
	path      string
	signature string
	prefix    string
	scope     string
}

// Scanner recovers the set of used PO sequences from a workbook. Results are
// cached by (path, signature, prefix, sheet scope); any external write changes
// the signature and invalidates the entry naturally. The cache is process
// local and bounded.
type Scanner struct {
	cfg Config

	mu    sync.Mutex
	cache map[sequenceCacheKey]map[int]struct{}
}

// NewScanner returns a Scanner with its own empty cache.
func NewScanner(cfg Config) *Scanner {
	return &Scanner{
		cfg:   cfg,
		cache: make(map[sequenceCacheKey]map[int]struct{}),
	}
}

// CollectSequences scans the named sheet (or every sheet when sheet is empty
// or absent) for PO identifiers matching prefix and returns their integer
// sequences. A missing workbook yields an empty set.
func (s *Scanner) CollectSequences(path, prefix, sheet string) (map[int]struct{}, error) {
	if _, err := os.Stat(path); err != nil {
		return map[int]struct{}{}, nil
	}

	scope := "__all__"
	if strings.TrimSpace(sheet) != "" {
		scope = strings.ToLower(strings.TrimSpace(sheet))
	}
	key := sequenceCacheKey{
		path:      PathKey(path),
		signature: Signature(path),
		prefix:    strings.ToUpper(strings.TrimSpace(prefix)),
		scope:     scope,
	}

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		out := make(map[int]struct{}, len(cached))
		for seq := range cached {
			out[seq] = struct{}{}
		}
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	f, err := OpenWorkbook(path, s.cfg)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if sheet != "" {
		for _, name := range sheetNames {
			if name == sheet {
				sheetNames = []string{sheet}
				break
			}
		}
	}

	pattern := compilePOPattern(prefix)
	sequences := make(map[int]struct{})
	for _, name := range sheetNames {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &OpError{Op: "scan", Path: path, Err: err}
		}
		s.scanSheet(rows, pattern, sequences)
	}

	s.mu.Lock()
	if len(s.cache) >= s.cfg.CacheMaxKeys {
		for evict := range s.cache {
			delete(s.cache, evict)
			break
		}
	}
	stored := make(map[int]struct{}, len(sequences))
	for seq := range sequences {
		stored[seq] = struct{}{}
	}
	s.cache[key] = stored
	s.mu.Unlock()

	return sequences, nil
}

// scanSheet walks each candidate PO column downward, stopping early once a
// long run of empty cells follows at least one match, or at the hard row cap.
func (s *Scanner) scanSheet(rows [][]string, pattern poPattern, sequences map[int]struct{}) {
	columns := findPOColumnIndexes(rows, s.cfg.HeaderScanRows)
	for _, col := range columns {
		emptyStreak := 0
		found := false
		for rowIdx := 0; rowIdx < len(rows); rowIdx++ {
			cell := ""
			if col < len(rows[rowIdx]) {
				cell = rows[rowIdx][col]
			}

			if seq, ok := pattern.parse(cell); ok {
				sequences[seq] = struct{}{}
				found = true
				emptyStreak = 0
			} else if strings.TrimSpace(cell) != "" {
				emptyStreak = 0
			} else {
				emptyStreak++
			}

			if found && emptyStreak >= s.cfg.ScanEmptyStreakBreak {
				break
			}
			if rowIdx+1 >= s.cfg.ScanHardRowLimit && emptyStreak >= s.cfg.ScanEmptyStreakBreak {
				break
			}
		}
	}
}

// NextPONumber derives the next free PO identifier: max existing sequence + 1,
// floored at the configured start. A missing or empty workbook yields
// prefix+start.
func (s *Scanner) NextPONumber(path, sheet string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("%s%d", s.cfg.Prefix, s.cfg.StartNumber), nil
	}

	sequences, err := s.CollectSequences(path, s.cfg.Prefix, sheet)
	if err != nil {
		return "", err
	}
	next := s.cfg.StartNumber
	for seq := range sequences {
		if seq+1 > next {
			next = seq + 1
		}
	}
	return fmt.Sprintf("%s%d", s.cfg.Prefix, next), nil
}

// PONumberExists reports whether the identifier's sequence is already present
// in the workbook. Malformed identifiers are never "present".
func (s *Scanner) PONumberExists(path, poNumber, sheet string) (bool, error) {
	seq, ok := ParsePONumber(poNumber, s.cfg.Prefix)
	if !ok {
		return false, nil
	}
	sequences, err := s.CollectSequences(path, s.cfg.Prefix, sheet)
	if err != nil {
		return false, err
	}
	_, exists := sequences[seq]
	return exists, nil
}
