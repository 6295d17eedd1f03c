// Package controller sequences the upload, detect, comment and history
// flows against the corrosion-detection service and pushes their results
// into a View. It mirrors the service's web client: one piece of session
// state (the most recently uploaded image id) and four user-triggered
// operations, each a single linear success/failure branch.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/manash/corroscan/internal/api"
	"github.com/manash/corroscan/pkg/models"
)

// View is the render surface the controller drives. It corresponds to the
// page regions of the service's web UI: file picker, comment box, alert
// dialogs, the before/after image panels, the hidden-by-default results
// section and the history list.
type View interface {
	// SelectedFile returns the path picked for upload, or "" when none.
	SelectedFile() string
	// CommentInput returns the pending comment text, or "" when empty.
	CommentInput() string
	ClearCommentInput()

	Alert(msg string)
	ShowOriginal(url string)
	ShowProcessed(url string)
	// ShowCorrosion receives the percentage already formatted to two
	// decimal places.
	ShowCorrosion(label string)
	// RevealResults makes the processing-results section visible. It is
	// never called unless detection succeeded.
	RevealResults()
	// RenderHistory fully replaces the history region.
	RenderHistory(items []models.HistoryItem)
}

// Recorder receives best-effort notifications about completed calls, used
// to keep the local inspection ledger. Failures inside a Recorder must not
// surface to the user.
type Recorder interface {
	RecordUpload(ctx context.Context, res *models.UploadResult)
	RecordDetection(ctx context.Context, imageID string, res *models.DetectionResult)
	RecordComment(ctx context.Context, imageID, comment string)
}

// User-facing alert texts. Validation and transport alerts are fixed;
// application failures surface the server's own message.
const (
	alertSelectFile   = "Please select an image file first."
	alertEmptyComment = "Please enter a comment."
	alertGeneric      = "An error occurred. Please try again."
)

type Config struct {
	Client   *api.Client
	View     View
	Recorder Recorder // optional
	Logger   *slog.Logger
}

type Controller struct {
	client   *api.Client
	view     View
	recorder Recorder
	logger   *slog.Logger

	// currentImageID is the only session state: the id of the most
	// recently uploaded image, "" until the first successful upload,
	// overwritten afterwards and never cleared.
	currentImageID string
}

func New(cfg *Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client:   cfg.Client,
		view:     cfg.View,
		recorder: cfg.Recorder,
		logger:   logger,
	}
}

// CurrentImageID returns the session image id, "" when nothing has been
// uploaded yet.
func (c *Controller) CurrentImageID() string {
	return c.currentImageID
}

// AdoptImage seeds the session with an identifier from an earlier run so
// one-shot commands can comment on a known image.
func (c *Controller) AdoptImage(id string) {
	c.currentImageID = id
}

// UploadImage reads the view's selected file, uploads it, then chains into
// the detect step. The two calls are strictly sequential: detect is never
// issued unless the upload succeeded, and a detect failure does not roll
// back the upload's visible effects.
func (c *Controller) UploadImage(ctx context.Context) {
	path := c.view.SelectedFile()
	if path == "" {
		c.view.Alert(alertSelectFile)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		c.logger.Error("opening upload file", "path", path, "error", err)
		c.view.Alert(alertGeneric)
		return
	}
	defer file.Close()

	res, err := c.client.Upload(ctx, filepath.Base(path), file)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			// The server can assign an id before rejecting; keep it.
			if res != nil && res.ImageID != "" {
				c.currentImageID = res.ImageID
			}
			c.view.Alert(apiErr.Error())
			return
		}
		c.logger.Error("upload request failed", "error", err)
		c.view.Alert(alertGeneric)
		return
	}

	c.currentImageID = res.ImageID
	c.view.ShowOriginal(res.OriginalURL)
	if c.recorder != nil {
		c.recorder.RecordUpload(ctx, res)
	}

	c.detect(ctx, res.ImageID, res.Filename)
}

func (c *Controller) detect(ctx context.Context, imageID, filename string) {
	res, err := c.client.Detect(ctx, imageID, filename)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			c.view.Alert(apiErr.Error())
			return
		}
		c.logger.Error("detect request failed", "image_id", imageID, "error", err)
		c.view.Alert(alertGeneric)
		return
	}

	c.view.ShowProcessed(res.ProcessedURL)
	c.view.ShowCorrosion(models.FormatCorrosion(res.CorrosionPercentage))
	c.view.RevealResults()
	if c.recorder != nil {
		c.recorder.RecordDetection(ctx, imageID, res)
	}

	c.LoadHistory(ctx)
}

// AddComment submits the view's comment input for the session image. An
// unset session id is deliberately not guarded against: the request goes
// out with the identifier absent and the server rejects it.
func (c *Controller) AddComment(ctx context.Context) {
	comment := c.view.CommentInput()
	if comment == "" {
		c.view.Alert(alertEmptyComment)
		return
	}

	_, err := c.client.AddComment(ctx, c.currentImageID, comment)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			c.view.Alert(apiErr.Error())
			return
		}
		// Transport failures on the comment path are logged, never
		// alerted. The input keeps its value either way.
		c.logger.Error("comment request failed", "error", err)
		return
	}

	if c.recorder != nil {
		c.recorder.RecordComment(ctx, c.currentImageID, comment)
	}
	c.view.ClearCommentInput()
	c.RefreshHistoryAndComments(ctx)
}

// RefreshHistoryAndComments is a no-op until an image has been uploaded,
// then delegates entirely to LoadHistory. Comments are not fetched per
// image; the history feed is the only read path.
func (c *Controller) RefreshHistoryAndComments(ctx context.Context) {
	if c.currentImageID == "" {
		return
	}
	c.LoadHistory(ctx)
}

// LoadHistory refreshes the history region. Failures are logged and
// otherwise invisible; the region is only touched after a decoded success.
func (c *Controller) LoadHistory(ctx context.Context) {
	items, err := c.client.History(ctx)
	if err != nil {
		c.logger.Error("history request failed", "error", err)
		return
	}
	c.view.RenderHistory(items)
}
