package potrol

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const maxRuntimeLogLines = 1200

var (
	runtimeLogMu   sync.Mutex
	runtimeLogPath = defaultRuntimeLogPath()
)

func defaultRuntimeLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".potrol_runtime.log"
	}
	return filepath.Join(home, ".potrol_runtime.log")
}

// SetRuntimeLogPath redirects the runtime log, mainly for tests.
func SetRuntimeLogPath(path string) {
	runtimeLogMu.Lock()
	defer runtimeLogMu.Unlock()
	runtimeLogPath = path
}

// AppendRuntimeLog records one line in the capped runtime log. It never
// fails: the log is the destination for silent-degrade paths, so it cannot
// itself abort anything.
func AppendRuntimeLog(level, context, message string) {
	levelText := strings.ToUpper(strings.TrimSpace(level))
	if levelText == "" {
		levelText = "INFO"
	}
	contextText := strings.TrimSpace(context)
	if contextText == "" {
		contextText = "runtime"
	}
	messageText := strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(message))
	if messageText == "" {
		messageText = "(no details)"
	}

	line := fmt.Sprintf("%s [%s] %s :: %s\n",
		time.Now().Format("2006-01-02T15:04:05"), levelText, contextText, messageText)

	runtimeLogMu.Lock()
	defer runtimeLogMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(runtimeLogPath), 0o755); err != nil {
		return
	}
	file, err := os.OpenFile(runtimeLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	file.WriteString(line)
	file.Close()

	data, err := os.ReadFile(runtimeLogPath)
	if err != nil {
		return
	}
	lines := splitLogLines(string(data))
	if len(lines) > maxRuntimeLogLines {
		trimmed := strings.Join(lines[len(lines)-maxRuntimeLogLines:], "\n") + "\n"
		os.WriteFile(runtimeLogPath, []byte(trimmed), 0o644)
	}
}

// RuntimeLogTail returns the last maxLines log lines, newest last.
func RuntimeLogTail(maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	runtimeLogMu.Lock()
	defer runtimeLogMu.Unlock()

	data, err := os.ReadFile(runtimeLogPath)
	if err != nil {
		return nil
	}
	lines := splitLogLines(string(data))
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

// RuntimeLogLineCount reports the current log length.
func RuntimeLogLineCount() int {
	runtimeLogMu.Lock()
	defer runtimeLogMu.Unlock()

	data, err := os.ReadFile(runtimeLogPath)
	if err != nil {
		return 0
	}
	return len(splitLogLines(string(data)))
}

// ClearRuntimeLog deletes the log file.
func ClearRuntimeLog() {
	runtimeLogMu.Lock()
	defer runtimeLogMu.Unlock()
	os.Remove(runtimeLogPath)
}

func splitLogLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
