package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// readAuditLines scans every "audit-*.log" file under dir, parsing each
// line as a types.AuditEntry. Malformed lines are skipped rather than
// aborting the read, matching the teacher's line-at-a-time JSONL reader
// but tolerant of partial writes at the tail of a live log file.
func readAuditLines(dir string) ([]types.AuditEntry, error) {
	files, err := filepath.Glob(filepath.Join(dir, "audit-*.log"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var entries []types.AuditEntry
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var e types.AuditEntry
			if err := json.Unmarshal([]byte(line), &e); err != nil {
				continue
			}
			entries = append(entries, e)
		}
		_ = f.Close()
	}
	return entries, nil
}

// GetRecentLogs returns the most recent n audit entries across every
// retained audit log file, oldest first.
func (l *Logger) GetRecentLogs(n int) ([]types.AuditEntry, error) {
	entries, err := readAuditLines(l.Dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
	if n <= 0 || n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// GetAuditTrail returns up to limit entries matching configID (or every
// entry, when configID is empty), oldest first.
func (l *Logger) GetAuditTrail(configID string, limit int) ([]types.AuditEntry, error) {
	entries, err := readAuditLines(l.Dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })

	var filtered []types.AuditEntry
	for _, e := range entries {
		if configID == "" || e.ConfigID == configID {
			filtered = append(filtered, e)
		}
	}
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}
