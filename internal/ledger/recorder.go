package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/manash/corroscan/pkg/models"
)

// Recorder adapts a Store to the controller's Recorder interface. Writes
// are best effort: a ledger problem is logged and never surfaced.
type Recorder struct {
	store  *Store
	server string
	logger *slog.Logger
}

func NewRecorder(store *Store, server string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, server: server, logger: logger}
}

func (r *Recorder) RecordUpload(ctx context.Context, res *models.UploadResult) {
	err := r.store.AddUpload(ctx, &Upload{
		ID:          uuid.New().String(),
		ImageID:     res.ImageID,
		Filename:    res.Filename,
		OriginalURL: res.OriginalURL,
		Server:      r.server,
		UploadedAt:  time.Now(),
	})
	if err != nil {
		r.logger.Warn("failed to record upload", "image_id", res.ImageID, "error", err)
	}
}

func (r *Recorder) RecordDetection(ctx context.Context, imageID string, res *models.DetectionResult) {
	err := r.store.AddReading(ctx, &Reading{
		ID:           uuid.New().String(),
		ImageID:      imageID,
		Corrosion:    res.CorrosionPercentage,
		ProcessedURL: res.ProcessedURL,
		DetectedAt:   time.Now(),
	})
	if err != nil {
		r.logger.Warn("failed to record reading", "image_id", imageID, "error", err)
	}
}

func (r *Recorder) RecordComment(ctx context.Context, imageID, comment string) {
	err := r.store.AddComment(ctx, &Comment{
		ID:        uuid.New().String(),
		ImageID:   imageID,
		Body:      comment,
		CreatedAt: time.Now(),
	})
	if err != nil {
		r.logger.Warn("failed to record comment", "image_id", imageID, "error", err)
	}
}
