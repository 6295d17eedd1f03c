// Package api implements the HTTP wire contract of the corrosion-detection
// service: multipart upload, detection, comments and the history feed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/manash/corroscan/pkg/models"
)

const defaultTimeout = 120 * time.Second

var ErrServerRequired = errors.New("server URL is required")

// APIError is a failure the server reported itself, as opposed to a
// transport or decoding problem.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

type Config struct {
	BaseURL    string
	TimeoutSec int
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrServerRequired
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload sends the file as multipart form data under field name "file".
// When the server rejects the upload but its failure body still carries an
// identifier, the partial result is returned alongside the *APIError so
// callers can keep the assigned id.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (*models.UploadResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded struct {
		ImageID     string `json:"image_id"`
		Filename    string `json:"filename"`
		OriginalURL string `json:"original_url"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	result := &models.UploadResult{
		ImageID:     decoded.ImageID,
		Filename:    decoded.Filename,
		OriginalURL: decoded.OriginalURL,
	}

	if decoded.Error != "" {
		return result, &APIError{StatusCode: resp.StatusCode, Message: decoded.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return result, &APIError{StatusCode: resp.StatusCode}
	}
	return result, nil
}

// Detect asks the server to run the corrosion-detection pass over a
// previously uploaded image.
func (c *Client) Detect(ctx context.Context, imageID, filename string) (*models.DetectionResult, error) {
	payload := struct {
		ImageID  string `json:"image_id"`
		Filename string `json:"filename"`
	}{ImageID: imageID, Filename: filename}

	var decoded struct {
		models.DetectionResult
		Error string `json:"error"`
	}
	status, err := c.postJSON(ctx, "/detect", payload, &decoded)
	if err != nil {
		return nil, err
	}
	if decoded.Error != "" {
		return nil, &APIError{StatusCode: status, Message: decoded.Error}
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status}
	}
	return &decoded.DetectionResult, nil
}

// AddComment attaches a free-text comment to an image. An empty imageID is
// sent as an absent field; rejecting that is the server's job.
func (c *Client) AddComment(ctx context.Context, imageID, comment string) (*models.CommentResult, error) {
	payload := models.CommentRequest{ImageID: imageID, Comment: comment}

	var decoded struct {
		models.CommentResult
		Error string `json:"error"`
	}
	status, err := c.postJSON(ctx, "/comment", payload, &decoded)
	if err != nil {
		return nil, err
	}
	if decoded.Error != "" {
		return nil, &APIError{StatusCode: status, Message: decoded.Error}
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status}
	}
	return &decoded.CommentResult, nil
}

// History fetches the server-ordered list of past uploads. The status is
// checked before the body is decoded, so a failing refresh never yields a
// half-parsed list.
func (c *Client) History(ctx context.Context) ([]models.HistoryItem, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	var items []models.HistoryItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return items, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, decoded any) (int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(raw, decoded); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.StatusCode, nil
}
