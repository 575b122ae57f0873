package potrol

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const backupStampLayout = "20060102-150405"

// copyFileWithRetry copies src to dst, creating parent directories and
// retrying transient failures with a fixed delay.
func copyFileWithRetry(src, dst string, retries int, delay time.Duration) error {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if err := copyFile(src, dst); err != nil {
			lastErr = err
			if attempt < retries-1 {
				time.Sleep(delay)
			}
			continue
		}
		return nil
	}
	return lastErr
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func backupStamp(now time.Time) string {
	return fmt.Sprintf("%s-%06d", now.Format(backupStampLayout), now.Nanosecond()/1000)
}

// CreateBackup copies the workbook into backupDir under a timestamped name
// and rotates old backups down to keepLatest. Returns the new backup's path,
// or "" with no error when the workbook does not exist yet.
func CreateBackup(path, backupDir string, keepLatest int, cfg Config) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}

	keepLatest = clampKeepLatest(keepLatest)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", &OpError{Op: "backup", Path: path, Err: err}
	}

	stem, suffix := splitStem(path)
	backupPath := filepath.Join(backupDir, stem+"-"+backupStamp(time.Now())+suffix)
	if err := copyFileWithRetry(path, backupPath, cfg.CopyRetryCount, cfg.CopyRetryDelay); err != nil {
		return "", &OpError{Op: "backup", Path: path, Err: err}
	}

	backups := ListBackups(path, backupDir)
	if len(backups) > keepLatest {
		for _, old := range backups[keepLatest:] {
			os.Remove(old)
		}
	}
	return backupPath, nil
}

// ListBackups returns this workbook's backups in backupDir, most recently
// modified first.
func ListBackups(path, backupDir string) []string {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return nil
	}

	stem, suffix := splitStem(path)
	type backup struct {
		path    string
		modTime time.Time
	}
	var backups []backup
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, stem+"-") || !strings.HasSuffix(name, suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{path: filepath.Join(backupDir, name), modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].modTime.Equal(backups[j].modTime) {
			return backups[i].modTime.After(backups[j].modTime)
		}
		// Same mtime granularity: the stamped name still orders them.
		return backups[i].path > backups[j].path
	})

	paths := make([]string, len(backups))
	for i, b := range backups {
		paths[i] = b.path
	}
	return paths
}

// LatestBackup returns the most recent backup path, or "".
func LatestBackup(path, backupDir string) string {
	backups := ListBackups(path, backupDir)
	if len(backups) == 0 {
		return ""
	}
	return backups[0]
}

// RestoreBackup replaces the live workbook with the chosen backup. The backup
// must live directly inside backupDir (path-traversal defense). A one-off
// safety copy of the current workbook is taken first, then the backup is
// staged to a temp file and atomically renamed over the live path. A missing
// or invalid choice returns "" without error.
func RestoreBackup(path, backupDir, backupFile string, cfg Config) (string, error) {
	if _, err := os.Stat(backupFile); err != nil {
		return "", nil
	}
	resolvedBackup, err := filepath.Abs(backupFile)
	if err != nil {
		return "", nil
	}
	resolvedDir, err := filepath.Abs(backupDir)
	if err != nil {
		return "", nil
	}
	if filepath.Dir(resolvedBackup) != resolvedDir {
		return "", nil
	}

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", &OpError{Op: "restore", Path: path, Err: err}
	}
	if _, err := os.Stat(path); err == nil {
		stem, suffix := splitStem(path)
		safetyCopy := filepath.Join(backupDir, stem+"-restore-safety-"+time.Now().Format(backupStampLayout)+suffix)
		_ = copyFileWithRetry(path, safetyCopy, 2, 100*time.Millisecond)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".restore.*.tmp")
	if err != nil {
		return "", &OpError{Op: "restore", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := copyFileWithRetry(backupFile, tmpName, cfg.CopyRetryCount, cfg.CopyRetryDelay); err != nil {
		return "", &OpError{Op: "restore", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", &OpError{Op: "restore", Path: path, Err: err}
	}
	return backupFile, nil
}

// RestoreLatestBackup restores the most recent backup, or returns "" when
// none exists.
func RestoreLatestBackup(path, backupDir string, cfg Config) (string, error) {
	latest := LatestBackup(path, backupDir)
	if latest == "" {
		return "", nil
	}
	return RestoreBackup(path, backupDir, latest, cfg)
}

// splitStem separates a workbook filename into stem and extension.
func splitStem(path string) (string, string) {
	name := filepath.Base(path)
	suffix := filepath.Ext(name)
	return strings.TrimSuffix(name, suffix), suffix
}
