package normalize

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

type rejectedLogger struct {
	file *os.File
	mu   sync.Mutex
}

func newRejectedLogger(path string, log *slog.Logger) *rejectedLogger {
	if path == "" {
		return nil
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path provided via config.
	if err != nil {
		log.Error("failed to open rejected lines log", "path", path, "error", err)
		return nil
	}
	return &rejectedLogger{file: file}
}

func (l *rejectedLogger) Log(listID string, lineNum int, verdict Verdict, line string) {
	if l == nil || l.file == nil {
		return
	}
	entry := fmt.Sprintf("%s list=%s line=%d reason=%s entry=%q\n",
		time.Now().UTC().Format(time.RFC3339),
		listID,
		lineNum,
		verdict,
		line,
	)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.file.WriteString(entry)
}

func (l *rejectedLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
