package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/manash/corroscan/pkg/models"
)

func TestTerminal_CommentDraft(t *testing.T) {
	term := NewTerminal(&bytes.Buffer{})

	if term.CommentInput() != "" {
		t.Errorf("CommentInput() = %q, want empty", term.CommentInput())
	}

	term.SetCommentInput("rust at the seam")
	if term.CommentInput() != "rust at the seam" {
		t.Errorf("CommentInput() = %q", term.CommentInput())
	}

	term.ClearCommentInput()
	if term.CommentInput() != "" {
		t.Errorf("CommentInput() after clear = %q", term.CommentInput())
	}
}

func TestTerminal_ResultsHiddenUntilRevealed(t *testing.T) {
	out := &bytes.Buffer{}
	term := NewTerminal(out)

	term.ShowProcessed("/processed/a.jpg")
	term.ShowCorrosion("37.46")

	if strings.Contains(out.String(), "37.46") {
		t.Errorf("corrosion visible before RevealResults: %q", out.String())
	}
	if term.ResultsShown() {
		t.Error("ResultsShown() = true before RevealResults")
	}

	term.RevealResults()

	got := out.String()
	if !strings.Contains(got, "Corrosion detected: 37.46%") {
		t.Errorf("output missing corrosion label: %q", got)
	}
	if !strings.Contains(got, "/processed/a.jpg") {
		t.Errorf("output missing processed URL: %q", got)
	}
	if !term.ResultsShown() {
		t.Error("ResultsShown() = false after RevealResults")
	}
}

func TestTerminal_Alert(t *testing.T) {
	out := &bytes.Buffer{}
	term := NewTerminal(out)

	term.Alert("Please select an image file first.")

	if got := out.String(); got != "! Please select an image file first.\n" {
		t.Errorf("Alert output = %q", got)
	}
}

func TestTerminal_RenderHistory(t *testing.T) {
	out := &bytes.Buffer{}
	term := NewTerminal(out)

	items := []models.HistoryItem{
		{Filename: "a.jpg", OriginalImageURL: "/uploads/a.jpg", ProcessedImageURL: "/processed/a.jpg", UploadedAt: "2023-10-15T12:00:00Z"},
		{Filename: "b.jpg", OriginalImageURL: "/uploads/b.jpg", UploadedAt: "2023-10-14T10:30:00Z"},
		{Filename: "c.jpg", OriginalImageURL: "/uploads/c.jpg", UploadedAt: "not-a-date"},
	}
	term.RenderHistory(items)

	got := out.String()
	if !strings.Contains(got, "Upload history (3):") {
		t.Errorf("missing header: %q", got)
	}
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if !strings.Contains(got, name) {
			t.Errorf("missing entry %s: %q", name, got)
		}
	}
	if !strings.Contains(got, "corrosion detected: /processed/a.jpg") {
		t.Errorf("processed entry not labeled: %q", got)
	}
	if strings.Count(got, "Processing...") != 2 {
		t.Errorf("Processing... count = %d, want 2 (unprocessed entries only)", strings.Count(got, "Processing..."))
	}
	// Unparsable timestamps are shown raw.
	if !strings.Contains(got, "not-a-date") {
		t.Errorf("raw timestamp fallback missing: %q", got)
	}
}

func TestTerminal_RenderHistoryEmpty(t *testing.T) {
	out := &bytes.Buffer{}
	term := NewTerminal(out)

	term.RenderHistory(nil)

	got := out.String()
	if !strings.Contains(got, "Upload history (0):") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "no uploads yet") {
		t.Errorf("missing empty placeholder: %q", got)
	}
}

func TestTerminal_RenderHistoryReplacesRegion(t *testing.T) {
	out := &bytes.Buffer{}
	term := NewTerminal(out)

	term.RenderHistory([]models.HistoryItem{
		{Filename: "a.jpg", OriginalImageURL: "/uploads/a.jpg", UploadedAt: "2023-10-15T12:00:00Z"},
	})
	out.Reset()

	term.RenderHistory([]models.HistoryItem{
		{Filename: "b.jpg", OriginalImageURL: "/uploads/b.jpg", UploadedAt: "2023-10-16T12:00:00Z"},
	})

	got := out.String()
	if strings.Contains(got, "a.jpg") {
		t.Errorf("old entry survived a rerender: %q", got)
	}
	if !strings.Contains(got, "Upload history (1):") {
		t.Errorf("rerender header wrong: %q", got)
	}
}
