package models

import (
	"fmt"
	"time"
)

// UploadResult is the server's answer to a successful image upload.
type UploadResult struct {
	ImageID     string `json:"image_id"`
	Filename    string `json:"filename"`
	OriginalURL string `json:"original_url"`
}

// Box is one region the detection model flagged as corroded, in pixel
// coordinates of the box corners.
type Box struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence,omitempty"`
	Label      string  `json:"label,omitempty"`
}

// DetectionData carries the raw model output attached to a detection
// response. Boxes may be empty when the model found nothing.
type DetectionData struct {
	Boxes               []Box   `json:"boxes"`
	CorrosionPercentage float64 `json:"corrosion_percentage"`
}

// DetectionResult is the server's answer to a detection request.
type DetectionResult struct {
	ProcessedURL        string         `json:"processed_url"`
	CorrosionPercentage float64        `json:"corrosion_percentage"`
	DetectionData       *DetectionData `json:"detection_data,omitempty"`
}

// CommentRequest is the body of a comment submission. ImageID is omitted
// when no image has been uploaded in this session; the server rejects such
// requests.
type CommentRequest struct {
	ImageID string `json:"image_id,omitempty"`
	Comment string `json:"comment"`
}

// CommentResult is the server's answer to a stored comment.
type CommentResult struct {
	CommentID string `json:"comment_id"`
	Message   string `json:"message"`
}

// HistoryItem summarizes one past upload and its processing outcome.
// ProcessedImageURL is empty while the server is still processing.
type HistoryItem struct {
	ID                string `json:"id,omitempty"`
	Filename          string `json:"filename"`
	OriginalImageURL  string `json:"original_image_url"`
	ProcessedImageURL string `json:"processed_image_url,omitempty"`
	UploadedAt        string `json:"uploaded_at"`
}

// Processed reports whether the detection pass has finished for this item.
func (h *HistoryItem) Processed() bool {
	return h.ProcessedImageURL != ""
}

// UploadedTime parses the server timestamp. ok is false when the string is
// not RFC 3339; callers fall back to displaying the raw value.
func (h *HistoryItem) UploadedTime() (t time.Time, ok bool) {
	t, err := time.Parse(time.RFC3339, h.UploadedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatCorrosion renders a corrosion percentage with exactly two decimal
// places, without the percent sign. Exact binary ties round half to even,
// the same rule the service's own UI applies.
func FormatCorrosion(pct float64) string {
	return fmt.Sprintf("%.2f", pct)
}
