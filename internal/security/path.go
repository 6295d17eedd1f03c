// Package security validates the file paths and URLs the client touches:
// local images before upload, local paths before a download is written,
// and the server address itself.
package security

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrAbsolutePath     = errors.New("absolute paths are not allowed")
	ErrReservedName     = errors.New("reserved filename not allowed")
	ErrUnsupportedImage = errors.New("unsupported image type (want jpg, jpeg or png)")
)

// The service only accepts these upload types; this is the CLI analogue of
// the web form's file-picker filter.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var windowsReservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true,
	"com5": true, "com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
	"lpt5": true, "lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// ValidateUploadPath checks a local image path before it is read and sent
// to the server.
func ValidateUploadPath(path string) error {
	if !allowedImageExts[strings.ToLower(filepath.Ext(path))] {
		return ErrUnsupportedImage
	}
	return nil
}

// ValidateSavePath checks a user-supplied destination before a downloaded
// image is written to it.
func ValidateSavePath(path string) error {
	if filepath.IsAbs(path) {
		return ErrAbsolutePath
	}

	if strings.Contains(path, "..") || strings.HasPrefix(filepath.Clean(path), "..") {
		return ErrPathTraversal
	}

	base := filepath.Base(filepath.Clean(path))
	if isReserved(base) {
		return ErrReservedName
	}
	if strings.HasPrefix(base, "-") {
		return errors.New("filename cannot start with hyphen")
	}

	return nil
}

// SanitizeFilename strips characters that are unsafe in filenames from a
// server-supplied name before it is used locally.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "",
		"<", "", ">", "", "|", "", "\x00", "",
	)
	sanitized := replacer.Replace(name)
	sanitized = strings.TrimLeft(sanitized, ".-")
	sanitized = strings.TrimRight(sanitized, ". ")

	if isReserved(sanitized) {
		sanitized += "_"
	}
	if sanitized == "" {
		sanitized = "image"
	}
	return sanitized
}

func isReserved(name string) bool {
	stem := strings.TrimSuffix(strings.ToLower(name), filepath.Ext(name))
	return windowsReservedNames[stem]
}
