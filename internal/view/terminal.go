// Package view renders controller output on a terminal and keeps the bits
// of input state the web UI would hold in form controls: the picked file
// and the pending comment text.
package view

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/manash/corroscan/pkg/models"
)

type Terminal struct {
	out io.Writer

	selectedFile string
	commentDraft string

	originalURL  string
	processedURL string
	corrosion    string
	resultsShown bool
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// SelectFile sets the path the next UploadImage call will read.
func (t *Terminal) SelectFile(path string) {
	t.selectedFile = path
}

func (t *Terminal) SelectedFile() string {
	return t.selectedFile
}

// SetCommentInput stores a comment draft. The draft survives failed
// submissions and is only cleared by the controller on success.
func (t *Terminal) SetCommentInput(text string) {
	t.commentDraft = text
}

func (t *Terminal) CommentInput() string {
	return t.commentDraft
}

func (t *Terminal) ClearCommentInput() {
	t.commentDraft = ""
}

func (t *Terminal) Alert(msg string) {
	fmt.Fprintf(t.out, "! %s\n", msg)
}

func (t *Terminal) ShowOriginal(url string) {
	t.originalURL = url
	fmt.Fprintf(t.out, "Original image: %s\n", url)
}

func (t *Terminal) ShowProcessed(url string) {
	t.processedURL = url
}

func (t *Terminal) ShowCorrosion(label string) {
	t.corrosion = label
}

// RevealResults prints the processing-results panel. ShowProcessed and
// ShowCorrosion only stage values; nothing is visible until this call.
func (t *Terminal) RevealResults() {
	t.resultsShown = true
	fmt.Fprintln(t.out, "Processing results:")
	fmt.Fprintf(t.out, "  Processed image: %s\n", t.processedURL)
	fmt.Fprintf(t.out, "  Corrosion detected: %s%%\n", t.corrosion)
}

// ResultsShown reports whether the results panel has been revealed.
func (t *Terminal) ResultsShown() bool {
	return t.resultsShown
}

// OriginalURL returns the last shown original image URL.
func (t *Terminal) OriginalURL() string {
	return t.originalURL
}

// ProcessedURL returns the last staged processed image URL.
func (t *Terminal) ProcessedURL() string {
	return t.processedURL
}

// RenderHistory rewrites the whole history block, one entry per item in
// server order.
func (t *Terminal) RenderHistory(items []models.HistoryItem) {
	fmt.Fprintf(t.out, "Upload history (%d):\n", len(items))
	if len(items) == 0 {
		fmt.Fprintln(t.out, "  (no uploads yet)")
		return
	}
	for _, item := range items {
		fmt.Fprintf(t.out, "  %s  uploaded %s\n", item.Filename, formatUploadedAt(item))
		fmt.Fprintf(t.out, "    original: %s\n", item.OriginalImageURL)
		if item.Processed() {
			fmt.Fprintf(t.out, "    corrosion detected: %s\n", item.ProcessedImageURL)
		} else {
			fmt.Fprintln(t.out, "    Processing...")
		}
	}
}

func formatUploadedAt(item models.HistoryItem) string {
	ts, ok := item.UploadedTime()
	if !ok {
		return item.UploadedAt
	}
	local := ts.Local()
	return fmt.Sprintf("%s (%s)", local.Format("2006-01-02 15:04:05"), humanize.Time(local))
}
