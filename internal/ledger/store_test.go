package ledger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/manash/corroscan/pkg/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreWithPath(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewStoreWithPath() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_AddAndListUploads(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := &Upload{
		ID:          "row-1",
		ImageID:     "img-1",
		Filename:    "hull.jpg",
		OriginalURL: "/uploads/abc_hull.jpg",
		Server:      "http://localhost:5000",
		UploadedAt:  time.Date(2023, 10, 14, 10, 0, 0, 0, time.UTC),
	}
	second := &Upload{
		ID:         "row-2",
		ImageID:    "img-2",
		Filename:   "deck.jpg",
		UploadedAt: time.Date(2023, 10, 15, 10, 0, 0, 0, time.UTC),
	}
	for _, u := range []*Upload{first, second} {
		if err := store.AddUpload(ctx, u); err != nil {
			t.Fatalf("AddUpload() error = %v", err)
		}
	}

	uploads, err := store.ListUploads(ctx)
	if err != nil {
		t.Fatalf("ListUploads() error = %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("ListUploads() returned %d rows, want 2", len(uploads))
	}
	// Newest first.
	if uploads[0].ImageID != "img-2" || uploads[1].ImageID != "img-1" {
		t.Errorf("ListUploads() order = %s, %s", uploads[0].ImageID, uploads[1].ImageID)
	}
	if uploads[1].OriginalURL != "/uploads/abc_hull.jpg" {
		t.Errorf("OriginalURL = %q", uploads[1].OriginalURL)
	}
	if uploads[0].OriginalURL != "" {
		t.Errorf("empty OriginalURL came back as %q", uploads[0].OriginalURL)
	}
}

func TestStore_CommentsForImage(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	comments := []*Comment{
		{ID: "c-1", ImageID: "img-1", Body: "first note", CreatedAt: time.Date(2023, 10, 15, 10, 0, 0, 0, time.UTC)},
		{ID: "c-2", ImageID: "img-1", Body: "second note", CreatedAt: time.Date(2023, 10, 15, 11, 0, 0, 0, time.UTC)},
		{ID: "c-3", ImageID: "img-2", Body: "other image", CreatedAt: time.Date(2023, 10, 15, 12, 0, 0, 0, time.UTC)},
	}
	for _, c := range comments {
		if err := store.AddComment(ctx, c); err != nil {
			t.Fatalf("AddComment() error = %v", err)
		}
	}

	got, err := store.CommentsForImage(ctx, "img-1")
	if err != nil {
		t.Fatalf("CommentsForImage() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("CommentsForImage() returned %d rows, want 2", len(got))
	}
	// Oldest first.
	if got[0].Body != "first note" || got[1].Body != "second note" {
		t.Errorf("CommentsForImage() order = %q, %q", got[0].Body, got[1].Body)
	}
}

func TestStore_Summarize(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Readings != 0 || summary.Average != 0 || summary.Max != 0 {
		t.Errorf("empty ledger summary = %+v", summary)
	}

	for i, pct := range []float64{10, 20, 60} {
		r := &Reading{
			ID:         string(rune('a' + i)),
			ImageID:    "img-1",
			Corrosion:  pct,
			DetectedAt: time.Now(),
		}
		if err := store.AddReading(ctx, r); err != nil {
			t.Fatalf("AddReading() error = %v", err)
		}
	}

	summary, err = store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Readings != 3 {
		t.Errorf("Readings = %d, want 3", summary.Readings)
	}
	if summary.Average != 30 {
		t.Errorf("Average = %v, want 30", summary.Average)
	}
	if summary.Max != 60 {
		t.Errorf("Max = %v, want 60", summary.Max)
	}
}

func TestRecorder_RecordsEverything(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	rec := NewRecorder(store, "http://localhost:5000", slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec.RecordUpload(ctx, &models.UploadResult{ImageID: "img-1", Filename: "abc_hull.jpg", OriginalURL: "/uploads/abc_hull.jpg"})
	rec.RecordDetection(ctx, "img-1", &models.DetectionResult{ProcessedURL: "/processed/abc_hull.jpg", CorrosionPercentage: 37.456})
	rec.RecordComment(ctx, "img-1", "rust at the seam")

	uploads, err := store.ListUploads(ctx)
	if err != nil {
		t.Fatalf("ListUploads() error = %v", err)
	}
	if len(uploads) != 1 || uploads[0].Server != "http://localhost:5000" {
		t.Errorf("uploads = %+v", uploads)
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Readings != 1 || summary.Max != 37.456 {
		t.Errorf("summary = %+v", summary)
	}

	comments, err := store.CommentsForImage(ctx, "img-1")
	if err != nil {
		t.Fatalf("CommentsForImage() error = %v", err)
	}
	if len(comments) != 1 || comments[0].Body != "rust at the seam" {
		t.Errorf("comments = %+v", comments)
	}
}

func TestRecorder_LedgerFailureIsSilent(t *testing.T) {
	store := testStore(t)
	store.Close()

	rec := NewRecorder(store, "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Must not panic; failures only go to the log.
	rec.RecordUpload(context.Background(), &models.UploadResult{ImageID: "img-1"})
	rec.RecordComment(context.Background(), "img-1", "note")
}
