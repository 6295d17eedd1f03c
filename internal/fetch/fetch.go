// Package fetch downloads images referenced by the service. The server
// hands out paths like /uploads/x.jpg, so references are resolved against
// the configured base URL before fetching.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/manash/corroscan/internal/security"
)

const defaultTimeout = 60 * time.Second

type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Resolve turns a server-relative image reference into an absolute URL.
// Absolute references pass through untouched.
func (f *Fetcher) Resolve(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return f.baseURL + ref
}

// Fetch downloads an image reference and returns its bytes.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Resolve(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Save downloads an image reference to a local path.
func (f *Fetcher) Save(ctx context.Context, ref, path string) error {
	if err := security.ValidateSavePath(path); err != nil {
		return err
	}

	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
