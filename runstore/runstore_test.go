package runstore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/randalmurphal/codeflow/workflow"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return store
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newStore(t)

	c := workflow.NewContext("abc12345", "TICK-1", workflow.Config{MaxRetries: 2}, true)
	c.MarkStepComplete(workflow.StepFetchTicket)
	c.AddLog("START FetchTicket")
	c.CompletedAt = time.Now()

	path, err := store.Save(c)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasSuffix(path, "abc12345.json") {
		t.Errorf("path = %q, want runID-named file", path)
	}

	loaded, err := store.Load("abc12345")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.TicketID != "TICK-1" {
		t.Errorf("TicketID = %q, want TICK-1", loaded.TicketID)
	}
	if len(loaded.CompletedSteps) != 1 || loaded.CompletedSteps[0] != workflow.StepFetchTicket {
		t.Errorf("CompletedSteps = %v", loaded.CompletedSteps)
	}
	if loaded.Config.MaxRetries != 2 {
		t.Errorf("Config.MaxRetries = %d, want 2", loaded.Config.MaxRetries)
	}
}

func TestLoadMissingRun(t *testing.T) {
	store := newStore(t)

	_, err := store.Load("nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Load() error = %v, want ErrRunNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := newStore(t)

	old := workflow.NewContext("run-old", "TICK-1", workflow.Config{}, false)
	old.StartedAt = time.Now().Add(-time.Hour)
	old.CompletedAt = old.StartedAt.Add(time.Minute)

	recent := workflow.NewContext("run-new", "TICK-2", workflow.Config{}, false)
	recent.CompletedAt = time.Now()
	recent.PR = &workflow.PRInfo{URL: "https://github.com/acme/widgets/pull/9", Branch: "feature/TICK-2"}

	for _, c := range []*workflow.Context{old, recent} {
		if _, err := store.Save(c); err != nil {
			t.Fatalf("Save(%s) error = %v", c.RunID, err)
		}
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List() = %d runs, want 2", len(runs))
	}
	if runs[0].RunID != "run-new" || runs[1].RunID != "run-old" {
		t.Errorf("order = [%s %s], want newest first", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].PRURL == "" {
		t.Error("PRURL missing for run with PR")
	}
	if runs[0].Status != "success" {
		t.Errorf("Status = %q, want success", runs[0].Status)
	}
}

func TestListEmptyStore(t *testing.T) {
	store := newStore(t)

	runs, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("List() = %v, want empty", runs)
	}
}
