package view

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// Kitty graphics protocol framing. Payloads over one chunk are streamed
// with the m=1/m=0 continuation flag.
const (
	kittyStart = "\x1b_G"
	kittyEnd   = "\x1b\\"
	kittyChunk = 4096
)

type kittyEncoder struct {
	out io.Writer
}

func (e *kittyEncoder) encode(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	first := true
	for len(encoded) > 0 {
		chunk := encoded
		if len(chunk) > kittyChunk {
			chunk = encoded[:kittyChunk]
		}
		encoded = encoded[len(chunk):]
		last := len(encoded) == 0

		var params string
		switch {
		case first && last:
			params = "a=T,f=100,q=2"
		case first:
			params = "a=T,f=100,q=2,m=1"
		case last:
			params = "m=0"
		default:
			params = "m=1"
		}
		first = false

		if _, err := fmt.Fprintf(e.out, "%s%s;%s%s", kittyStart, params, chunk, kittyEnd); err != nil {
			return err
		}
	}
	return nil
}

// TerminalSupportsImages reports whether the surrounding terminal speaks
// the kitty graphics protocol.
func TerminalSupportsImages() bool {
	switch strings.ToLower(os.Getenv("TERM_PROGRAM")) {
	case "kitty", "ghostty", "iterm.app", "wezterm":
		return true
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" || os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}
