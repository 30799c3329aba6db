// Package runstore persists finished workflow runs as JSON files, one
// per run, and lists them for inspection.
package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/randalmurphal/codeflow/workflow"
)

// ErrRunNotFound indicates no stored run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

// FileStore stores runs as <runID>.json files under a base directory.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileStore creates a file-based run store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "runs"
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create runs dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Save implements workflow.RunStore. It writes the context as indented
// JSON and returns the file path.
func (s *FileStore) Save(c *workflow.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run %s: %w", c.RunID, err)
	}

	path := filepath.Join(s.baseDir, c.RunID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write run %s: %w", c.RunID, err)
	}
	return path, nil
}

// Load reads a stored run by ID.
func (s *FileStore) Load(runID string) (*workflow.Context, error) {
	path := filepath.Join(s.baseDir, runID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}

	var c workflow.Context
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &c, nil
}

// RunSummary is one row in a run listing.
type RunSummary struct {
	RunID    string
	TicketID string
	Status   string
	Started  string
	PRURL    string
}

// List returns summaries of all stored runs, newest first.
func (s *FileStore) List() ([]RunSummary, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read runs dir: %w", err)
	}

	var runs []*workflow.Context
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		runID := strings.TrimSuffix(entry.Name(), ".json")
		c, err := s.Load(runID)
		if err != nil {
			// Skip unreadable entries rather than failing the listing.
			continue
		}
		runs = append(runs, c)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	summaries := make([]RunSummary, 0, len(runs))
	for _, c := range runs {
		summary := RunSummary{
			RunID:    c.RunID,
			TicketID: c.TicketID,
			Status:   c.Status(),
			Started:  c.StartedAt.Format("2006-01-02 15:04:05"),
		}
		if c.PR != nil {
			summary.PRURL = c.PR.URL
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
