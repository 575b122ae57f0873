package potrol

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// readJSONMap loads a JSON object sidecar. When the primary file is corrupt
// or missing it falls back to the ".bak" copy and self-heals the primary from
// it. Unreadable sidecars yield an empty map: sidecar loss must never block
// workbook operations.
func readJSONMap[V any](path string) map[string]V {
	candidates := []string{path, path + ".bak"}
	for i, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		var loaded map[string]V
		if err := json.Unmarshal(data, &loaded); err != nil || loaded == nil {
			continue
		}
		if i == 1 {
			_ = writeJSONAtomic(path, loaded, false)
		}
		return loaded
	}
	return map[string]V{}
}

// writeJSONAtomic writes a JSON document via temp file, fsync, and rename so
// readers never observe a partial sidecar. keepBackup preserves the previous
// content as "<path>.bak" for readJSONMap's self-heal path.
func writeJSONAtomic(path string, payload any, keepBackup bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if keepBackup {
		if _, err := os.Stat(path); err == nil {
			_ = copyFileWithRetry(path, path+".bak", 2, 80*time.Millisecond)
		}
	}
	return os.Rename(tmpName, path)
}
