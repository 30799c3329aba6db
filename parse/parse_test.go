package parse

import (
	"reflect"
	"testing"
)

func TestSplit_Basic(t *testing.T) {
	text := "HEADER1:\nline-a\nline-b\n\nHEADER2:\n1. item-x\n2. item-y"

	sections := Split(text)

	body, ok := sections.Get("HEADER1")
	if !ok {
		t.Fatal("HEADER1 section not found")
	}
	if body != "line-a\nline-b\n" {
		t.Errorf("HEADER1 body = %q, want %q", body, "line-a\nline-b\n")
	}

	body, ok = sections.Get("HEADER2")
	if !ok {
		t.Fatal("HEADER2 section not found")
	}
	items := Items(body)
	want := []string{"item-x", "item-y"}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("HEADER2 items = %v, want %v", items, want)
	}
}

func TestSplit_HyphenatedHeader(t *testing.T) {
	sections := Split("STEP-BY-STEP PLAN:\n1. do X\n")

	if _, ok := sections.Get("STEP-BY-STEP PLAN"); !ok {
		t.Error("hyphenated upper-case header should start a section")
	}
}

func TestSplit_LowercaseNotHeader(t *testing.T) {
	sections := Split("SUMMARY:\nNote: this line is body, not a header\nmore body")

	body, ok := sections.Get("SUMMARY")
	if !ok {
		t.Fatal("SUMMARY section not found")
	}
	if body != "Note: this line is body, not a header\nmore body" {
		t.Errorf("body = %q", body)
	}
	if sections.Len() != 1 {
		t.Errorf("Len = %d, want 1", sections.Len())
	}
}

func TestSplit_UnexpectedHeaderStartsSection(t *testing.T) {
	// Any line with the header shape ends the previous section, even when
	// the caller never asked for it.
	sections := Split("TARGET FILES:\n- a.go\nRANDOM HEADER:\n- b.go\n")

	body, _ := sections.Get("TARGET FILES")
	items := Items(body)
	if !reflect.DeepEqual(items, []string{"a.go"}) {
		t.Errorf("TARGET FILES items = %v, want [a.go]", items)
	}
	if _, ok := sections.Get("RANDOM HEADER"); !ok {
		t.Error("unexpected header should still be captured")
	}
}

func TestSplit_PreambleDiscarded(t *testing.T) {
	sections := Split("some chatter from the model\nSUMMARY:\ndone\n")

	if sections.Len() != 1 {
		t.Errorf("Len = %d, want 1", sections.Len())
	}
	body, _ := sections.Get("SUMMARY")
	if body != "done\n" {
		t.Errorf("SUMMARY body = %q, want %q", body, "done\n")
	}
}

func TestSplit_MissingSection(t *testing.T) {
	sections := Split("no headers here at all")

	if _, ok := sections.Get("ANYTHING"); ok {
		t.Error("Get on absent section should report not present")
	}
	if sections.Len() != 0 {
		t.Errorf("Len = %d, want 0", sections.Len())
	}
}

func TestSplit_Names(t *testing.T) {
	sections := Split("B:\nx\nA:\ny\n")

	names := sections.Names()
	if !reflect.DeepEqual(names, []string{"B", "A"}) {
		t.Errorf("Names = %v, want [B A]", names)
	}
}

func TestItems(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "bullets",
			body: "- one\n* two\n• three\n",
			want: []string{"one", "two", "three"},
		},
		{
			name: "numbered",
			body: "1. first\n2. second\n10. tenth\n",
			want: []string{"first", "second", "tenth"},
		},
		{
			name: "mixed with blanks",
			body: "\n- one\n\n2. two\nplain line\n  \n",
			want: []string{"one", "two", "plain line"},
		},
		{
			name: "marker-only lines dropped",
			body: "-\n- \n1.\n",
			want: nil,
		},
		{
			name: "empty body",
			body: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Items(tt.body)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Items = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNumberedItems(t *testing.T) {
	got := NumberedItems("1. do X\n2. do Y\nnot numbered\n")
	want := []string{"do X", "do Y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NumberedItems = %v, want %v", got, want)
	}

	if NumberedItems("- only bullets\n") != nil {
		t.Error("NumberedItems should return nil when nothing matches")
	}
}
