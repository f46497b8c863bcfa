package wake

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"driver-link/internal/ports"
)

// StatusFile is the user-visible indicator of a running agent: a small JSON file
// that desktop widgets, shell prompts or `driver-link status` can read.
type StatusFile struct {
	path string
}

func NewStatusFile(dataDir string) *StatusFile {
	return &StatusFile{path: filepath.Join(dataDir, "agent.status")}
}

func (f *StatusFile) Path() string { return f.path }

// Show replaces the file atomically.
func (f *StatusFile) Show(report ports.StatusReport) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("status: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".agent.status-*")
	if err != nil {
		return fmt.Errorf("status: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("status: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("status: close: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

// Clear removes the file. A missing file is fine.
func (f *StatusFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("status: remove: %w", err)
	}
	return nil
}

// Read returns the last report, false when the agent is not showing one.
func (f *StatusFile) Read() (ports.StatusReport, bool, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return ports.StatusReport{}, false, nil
	}
	if err != nil {
		return ports.StatusReport{}, false, err
	}
	var report ports.StatusReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return ports.StatusReport{}, false, fmt.Errorf("status: decode %s: %w", f.path, err)
	}
	return report, true, nil
}
