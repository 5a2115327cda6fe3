package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DebugDumper persists raw attendance-report payloads for a run under
// <dir>/debug. Safe for use as a pipeline raw sink.
type DebugDumper struct {
	dir   string
	runID string

	mu  sync.Mutex
	seq int
}

// NewDebugDumper creates a DebugDumper writing under dir with files
// named report_<runID>_<n>.json.
func NewDebugDumper(dir, runID string) *DebugDumper {
	return &DebugDumper{dir: filepath.Join(dir, "debug"), runID: runID}
}

// Dump writes one raw payload. Errors are returned, not logged; the
// caller decides whether a failed debug write matters.
func (d *DebugDumper) Dump(payload []byte) (string, error) {
	d.mu.Lock()
	d.seq++
	n := d.seq
	d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating debug directory: %w", err)
	}
	path := filepath.Join(d.dir, fmt.Sprintf("report_%s_%d.json", d.runID, n))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("writing debug payload: %w", err)
	}
	return path, nil
}
