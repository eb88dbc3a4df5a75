// Package filesystem persists training artifacts as JSON files under a
// run directory: the iteration history, the final progress report, and
// recorded episode replays.
package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/adversary-go/domain/training"
)

// Artifact file names inside a run directory.
const (
	historyFile = "training_history.json"
	reportFile  = "progress_report.json"
	replayDir   = "replays"
)

// RunStore writes and reads training artifacts for one run directory.
type RunStore struct {
	baseDir string
}

// NewRunStore creates a store rooted at baseDir, creating it if absent.
func NewRunStore(baseDir string) (*RunStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &RunStore{baseDir: baseDir}, nil
}

// BaseDir returns the run directory.
func (s *RunStore) BaseDir() string { return s.baseDir }

// HistoryPath returns the path of the history artifact.
func (s *RunStore) HistoryPath() string {
	return filepath.Join(s.baseDir, historyFile)
}

// ReportPath returns the path of the progress report artifact.
func (s *RunStore) ReportPath() string {
	return filepath.Join(s.baseDir, reportFile)
}

// SaveHistory writes the iteration history in parallel-array form.
func (s *RunStore) SaveHistory(h *training.History) error {
	return writeJSON(s.HistoryPath(), h.ToFileFormat())
}

// LoadHistory reads the iteration history back.
func (s *RunStore) LoadHistory() (*training.History, error) {
	var doc training.FileFormat
	if err := readJSON(s.HistoryPath(), &doc); err != nil {
		return nil, err
	}
	return training.FromFileFormat(doc), nil
}

// SaveReport writes the end-of-run progress report.
func (s *RunStore) SaveReport(r training.ProgressReport) error {
	return writeJSON(s.ReportPath(), r)
}

// LoadReport reads the progress report back.
func (s *RunStore) LoadReport() (training.ProgressReport, error) {
	var r training.ProgressReport
	if err := readJSON(s.ReportPath(), &r); err != nil {
		return training.ProgressReport{}, err
	}
	return r, nil
}

// SaveReplay writes one recorded episode under replays/.
func (s *RunStore) SaveReplay(name string, r training.Replay) error {
	dir := filepath.Join(s.baseDir, replayDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create replay directory: %w", err)
	}
	return writeJSON(filepath.Join(dir, name+".json"), r)
}

// LoadReplay reads one recorded episode back.
func (s *RunStore) LoadReplay(name string) (training.Replay, error) {
	var r training.Replay
	if err := readJSON(filepath.Join(s.baseDir, replayDir, name+".json"), &r); err != nil {
		return training.Replay{}, err
	}
	return r, nil
}

// Replays lists the names of recorded episodes.
func (s *RunStore) Replays() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, replayDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list replays: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if ext := filepath.Ext(entry.Name()); ext == ".json" {
			names = append(names, entry.Name()[:len(entry.Name())-len(ext)])
		}
	}
	return names, nil
}

// writeJSON marshals v and writes it through a temp file so readers
// never observe a partial document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
