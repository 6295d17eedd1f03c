package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/manash/corroscan/internal/api"
	"github.com/manash/corroscan/internal/controller"
	"github.com/manash/corroscan/internal/fetch"
	"github.com/manash/corroscan/internal/view"
)

// stubService is a minimal happy-path server with request counters.
type stubService struct {
	uploads   atomic.Int64
	detects   atomic.Int64
	comments  atomic.Int64
	histories atomic.Int64
}

func (ss *stubService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		ss.uploads.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"image_id":     "img-abcdef123456",
			"filename":     "abc_hull.jpg",
			"original_url": "/uploads/abc_hull.jpg",
		})
	})
	mux.HandleFunc("POST /detect", func(w http.ResponseWriter, r *http.Request) {
		ss.detects.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"processed_url":        "/processed/processed_abc_hull.jpg",
			"corrosion_percentage": 15.7,
		})
	})
	mux.HandleFunc("POST /comment", func(w http.ResponseWriter, r *http.Request) {
		ss.comments.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"comment_id": "cmt-1", "message": "Comment added successfully"})
	})
	mux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		ss.histories.Add(1)
		w.Write([]byte("[]"))
	})
	return mux
}

type testShell struct {
	shell *Shell
	out   *bytes.Buffer
	errs  *bytes.Buffer
	svc   *stubService
}

func newTestShell(t *testing.T, input string, interactive bool) *testShell {
	t.Helper()

	svc := &stubService{}
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)

	client, err := api.New(&api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}

	out := &bytes.Buffer{}
	errs := &bytes.Buffer{}
	term := view.NewTerminal(out)
	ctrl := controller.New(&controller.Config{
		Client: client,
		View:   term,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	fetcher := fetch.New(srv.URL)

	sh := New(&Config{
		In:          strings.NewReader(input),
		Out:         out,
		Err:         errs,
		Controller:  ctrl,
		Term:        term,
		Previewer:   view.NewPreviewer(out, fetcher),
		Fetcher:     fetcher,
		Interactive: interactive,
	})
	return &testShell{shell: sh, out: out, errs: errs, svc: svc}
}

func TestShell_LoadsHistoryOnStart(t *testing.T) {
	ts := newTestShell(t, "", false)

	if err := ts.shell.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := ts.svc.histories.Load(); got != 1 {
		t.Errorf("history requests = %d, want 1 (initial load)", got)
	}
}

func TestShell_UnknownCommand(t *testing.T) {
	ts := newTestShell(t, "bogus\n", false)

	if err := ts.shell.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(ts.errs.String(), "unknown command: bogus") {
		t.Errorf("stderr = %q", ts.errs.String())
	}
}

func TestShell_QuitStopsProcessing(t *testing.T) {
	ts := newTestShell(t, "quit\nhistory\n", false)

	if err := ts.shell.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// Only the initial page-load fetch; the history line after quit never runs.
	if got := ts.svc.histories.Load(); got != 1 {
		t.Errorf("history requests = %d, want 1", got)
	}
}

func TestShell_UploadRejectsBadExtension(t *testing.T) {
	ts := newTestShell(t, "upload notes.txt\nquit\n", false)

	if err := ts.shell.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(ts.errs.String(), "unsupported image type") {
		t.Errorf("stderr = %q", ts.errs.String())
	}
	if got := ts.svc.uploads.Load(); got != 0 {
		t.Errorf("upload requests = %d, want 0", got)
	}
}

func TestShell_UploadChainsDetectAndSetsPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hull.jpg")
	if err := os.WriteFile(path, []byte("fake image"), 0644); err != nil {
		t.Fatal(err)
	}

	ts := newTestShell(t, "upload "+path+"\nquit\n", true)

	if err := ts.shell.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ts.svc.uploads.Load() != 1 || ts.svc.detects.Load() != 1 {
		t.Errorf("uploads = %d, detects = %d, want 1 each", ts.svc.uploads.Load(), ts.svc.detects.Load())
	}
	// The prompt after upload carries the shortened image id.
	if !strings.Contains(ts.out.String(), "corroscan [img-abcd]> ") {
		t.Errorf("prompt missing image id: %q", ts.out.String())
	}
}

func TestShell_CommentWithQuotedText(t *testing.T) {
	ts := newTestShell(t, "use img-1\ncomment \"rust at the seam\"\nquit\n", false)

	if err := ts.shell.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := ts.svc.comments.Load(); got != 1 {
		t.Errorf("comment requests = %d, want 1", got)
	}
}

func TestShell_StatsWithoutLedger(t *testing.T) {
	ts := newTestShell(t, "stats\nquit\n", false)

	if err := ts.shell.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(ts.errs.String(), "ledger is disabled") {
		t.Errorf("stderr = %q", ts.errs.String())
	}
}

func TestShell_Help(t *testing.T) {
	ts := newTestShell(t, "help\nquit\n", false)

	if err := ts.shell.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := ts.out.String()
	for _, name := range commandOrder {
		if !strings.Contains(got, name) {
			t.Errorf("help output missing %q: %q", name, got)
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"simple", "upload hull.jpg", []string{"upload", "hull.jpg"}},
		{"double quotes", `comment "rust at the seam"`, []string{"comment", "rust at the seam"}},
		{"single quotes", "comment 'heavy pitting'", []string{"comment", "heavy pitting"}},
		{"nested quote", `comment "it's bad"`, []string{"comment", "it's bad"}},
		{"extra spaces", "  history   ", []string{"history"}},
		{"empty", "", nil},
		{"path with spaces", `upload "my photos/hull.jpg"`, []string{"upload", "my photos/hull.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLine(tt.line); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
