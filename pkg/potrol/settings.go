package potrol

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// SettingsFile is a plain key-value JSON document, used for app settings and
// location configuration. Loads are forgiving (missing or corrupt files yield
// an empty map); saves are atomic with a .bak safety copy.
type SettingsFile struct {
	Path string
}

// DefaultSettingsPath is "~/.potrol_settings.json".
func DefaultSettingsPath() string {
	return homeFile(".potrol_settings.json")
}

// DefaultDraftsPath is "~/.potrol_drafts.json".
func DefaultDraftsPath() string {
	return homeFile(".potrol_drafts.json")
}

// DefaultLocationsPath is "~/.potrol_locations.json".
func DefaultLocationsPath() string {
	return homeFile(".potrol_locations.json")
}

func homeFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, name)
}

// Load reads the settings document.
func (s SettingsFile) Load() map[string]any {
	return readJSONMap[any](s.Path)
}

// Save writes the settings document atomically.
func (s SettingsFile) Save(values map[string]any) error {
	return writeJSONAtomic(s.Path, values, true)
}

// DraftStore persists unsaved entry-form state per workbook and sheet, so a
// crash or accidental close does not lose a half-typed PO. All operations are
// best-effort.
type DraftStore struct {
	Path string
}

var draftKeyPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// DraftKey identifies a draft slot by workbook and sheet.
func DraftKey(workbookPath, sheet string) string {
	slug := strings.Trim(draftKeyPattern.ReplaceAllString(strings.ToLower(sheet), "_"), "_")
	return fmt.Sprintf("draft::%s::%s", PathKey(workbookPath), slug)
}

// Load returns the stored draft payload for a workbook/sheet, if any.
func (d DraftStore) Load(workbookPath, sheet string) (map[string]any, bool) {
	drafts := readJSONMap[map[string]any](d.Path)
	payload, ok := drafts[DraftKey(workbookPath, sheet)]
	return payload, ok
}

// Save stores a draft payload, replacing any previous draft for the slot.
func (d DraftStore) Save(workbookPath, sheet string, payload map[string]any) error {
	drafts := readJSONMap[map[string]any](d.Path)
	drafts[DraftKey(workbookPath, sheet)] = payload
	return writeJSONAtomic(d.Path, drafts, true)
}

// Clear removes the draft for a workbook/sheet. No-op when absent.
func (d DraftStore) Clear(workbookPath, sheet string) error {
	drafts := readJSONMap[map[string]any](d.Path)
	key := DraftKey(workbookPath, sheet)
	if _, ok := drafts[key]; !ok {
		return nil
	}
	delete(drafts, key)
	return writeJSONAtomic(d.Path, drafts, true)
}
