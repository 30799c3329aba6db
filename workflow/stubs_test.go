package workflow

import (
	"context"
	"strings"
	"testing"
)

func TestStubDesignProvider(t *testing.T) {
	p := &StubDesignProvider{}
	ticket := &TicketInfo{ID: "TICK-1", Title: "Add retry budget"}

	out, err := p.ProduceDesign(context.Background(), ticket, &RepoInfo{MainLanguage: "Go"})
	if err != nil {
		t.Fatalf("ProduceDesign() error = %v", err)
	}
	if want := "Need to implement: Add retry budget"; out.ProblemUnderstanding != want {
		t.Errorf("ProblemUnderstanding = %q, want %q", out.ProblemUnderstanding, want)
	}
	if len(out.TargetFiles) == 0 {
		t.Error("TargetFiles is empty")
	}
	if len(out.Plan) == 0 {
		t.Error("Plan is empty")
	}
}

func TestStubCodingProviderUsesDesignTargets(t *testing.T) {
	p := &StubCodingProvider{}
	design := &DesignOutput{TargetFiles: []string{"a.go", "b.go"}}

	out, err := p.ProduceCode(context.Background(), &TicketInfo{ID: "TICK-1"}, design, nil, nil)
	if err != nil {
		t.Fatalf("ProduceCode() error = %v", err)
	}
	if len(out.FilesChanged) != 2 || out.FilesChanged[0] != "a.go" {
		t.Errorf("FilesChanged = %v, want design targets", out.FilesChanged)
	}
	if !strings.HasPrefix(out.Diff, "[STUB DIFF]") {
		t.Errorf("Diff = %q, want stub marker prefix", out.Diff)
	}
}

func TestStubReviewProviderFollowsTestResult(t *testing.T) {
	p := &StubReviewProvider{}

	pass, err := p.ProduceReview(context.Background(), nil, nil, "diff", &TestOutput{Success: true})
	if err != nil {
		t.Fatalf("ProduceReview() error = %v", err)
	}
	if pass.Decision != DecisionApproved {
		t.Errorf("Decision = %q with passing tests, want %q", pass.Decision, DecisionApproved)
	}

	fail, err := p.ProduceReview(context.Background(), nil, nil, "diff", &TestOutput{Success: false})
	if err != nil {
		t.Fatalf("ProduceReview() error = %v", err)
	}
	if fail.Decision != DecisionRejected {
		t.Errorf("Decision = %q with failing tests, want %q", fail.Decision, DecisionRejected)
	}
}

func TestStubNotesProvider(t *testing.T) {
	p := &StubNotesProvider{}

	out, err := p.ProduceNotes(context.Background(), RunDigest{TicketID: "TICK-1", Language: "Go"})
	if err != nil {
		t.Fatalf("ProduceNotes() error = %v", err)
	}
	if want := "Processed TICK-1."; out.Summary != want {
		t.Errorf("Summary = %q, want %q", out.Summary, want)
	}
	wantTags := []string{"feature", "success", "go"}
	if len(out.Tags) != len(wantTags) {
		t.Fatalf("Tags = %v, want %v", out.Tags, wantTags)
	}
	for i, tag := range wantTags {
		if out.Tags[i] != tag {
			t.Errorf("Tags[%d] = %q, want %q", i, out.Tags[i], tag)
		}
	}
}

func TestStubNotesProviderUnknownLanguage(t *testing.T) {
	p := &StubNotesProvider{}

	out, err := p.ProduceNotes(context.Background(), RunDigest{})
	if err != nil {
		t.Fatalf("ProduceNotes() error = %v", err)
	}
	if out.Summary != "Processed N/A." {
		t.Errorf("Summary = %q, want %q", out.Summary, "Processed N/A.")
	}
	if got := out.Tags[len(out.Tags)-1]; got != "unknown" {
		t.Errorf("last tag = %q, want %q", got, "unknown")
	}
}
