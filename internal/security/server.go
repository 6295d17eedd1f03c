package security

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrInvalidScheme = errors.New("server URL must use http or https")
	ErrMissingHost   = errors.New("server URL must include a host")
)

// ValidateServerURL checks a configured server address before a client is
// built from it. Plain http is allowed: the service is routinely run on
// localhost during inspections.
func ValidateServerURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidScheme
	}
	if parsed.Host == "" {
		return ErrMissingHost
	}
	return nil
}
