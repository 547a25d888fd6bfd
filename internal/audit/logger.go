package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

const (
	// rotateMegabytes is lumberjack's MaxSize, approximating spec.md
	// §4.6's 10 MiB rotation threshold.
	rotateMegabytes = 10
	// retentionDays is spec.md §4.6's 30-day retention window.
	retentionDays = 30
)

// Logger writes both the human-readable deploy-YYYY-MM-DD.log stream and
// the structured JSONL audit-YYYY-MM-DD.log stream, each rotated by
// lumberjack once it exceeds rotateMegabytes; lumberjack deletes rotated
// copies older than retentionDays. Files named for earlier dates are not
// removed.
type Logger struct {
	Dir          string
	deployWriter *lumberjack.Logger
	auditWriter  *lumberjack.Logger
	text         *slog.Logger
	mu           sync.Mutex
}

// NewLogger builds a Logger writing under dir, naming today's files by
// the current date.
func NewLogger(dir string) *Logger {
	today := time.Now().Format("2006-01-02")
	deployWriter := &lumberjack.Logger{
		Filename: filepath.Join(dir, fmt.Sprintf("deploy-%s.log", today)),
		MaxSize:  rotateMegabytes,
		MaxAge:   retentionDays,
	}
	auditWriter := &lumberjack.Logger{
		Filename: filepath.Join(dir, fmt.Sprintf("audit-%s.log", today)),
		MaxSize:  rotateMegabytes,
		MaxAge:   retentionDays,
	}
	return &Logger{
		Dir:          dir,
		deployWriter: deployWriter,
		auditWriter:  auditWriter,
		text:         slog.New(slog.NewTextHandler(deployWriter, nil)),
	}
}

// write emits entry to both streams: a human-readable line through the
// slog text logger (whose default Info level drops debug entries from the
// deploy log), and the full structured entry (context redacted)
// marshaled as one self-contained JSON line appended directly to the
// audit log — matching the teacher's one-JSON-object-per-append
// convention rather than routing through slog's own attribute schema,
// so GetRecentLogs/GetAuditTrail can unmarshal lines straight back into
// types.AuditEntry.
func (l *Logger) write(entry types.AuditEntry) {
	entry.Context = redactContext(entry.Context)
	entry.SecurityContext = redactContext(entry.SecurityContext)

	ctx := context.Background()
	l.text.Log(ctx, slogLevel(entry.Level), entry.Action,
		"operation", entry.Operation,
		"result", entry.Result,
		"configId", entry.ConfigID,
		"platform", string(entry.Platform),
	)

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.auditWriter.Write(line)
}

func redactContext(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	red, ok := redact(m).(map[string]interface{})
	if !ok {
		return m
	}
	return red
}

func slogLevel(level types.AuditLevel) slog.Level {
	switch level {
	case types.AuditDebug:
		return slog.LevelDebug
	case types.AuditWarning:
		return slog.LevelWarn
	case types.AuditError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
