package ledger

import "time"

// Upload is one image sent to a server through this client.
type Upload struct {
	ID          string
	ImageID     string
	Filename    string
	OriginalURL string
	Server      string
	UploadedAt  time.Time
}

// Reading is one corrosion percentage the server reported.
type Reading struct {
	ID           string
	ImageID      string
	Corrosion    float64
	ProcessedURL string
	DetectedAt   time.Time
}

// Comment is one note attached to an image through this client.
type Comment struct {
	ID        string
	ImageID   string
	Body      string
	CreatedAt time.Time
}

// Summary aggregates the recorded corrosion readings.
type Summary struct {
	Readings int
	Average  float64
	Max      float64
}
