package view

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestKittyEncoder_SmallPayload(t *testing.T) {
	out := &bytes.Buffer{}
	enc := &kittyEncoder{out: out}

	if err := enc.encode([]byte("png bytes")); err != nil {
		t.Fatalf("encode() error = %v", err)
	}

	got := out.String()
	want := kittyStart + "a=T,f=100,q=2;" + base64.StdEncoding.EncodeToString([]byte("png bytes")) + kittyEnd
	if got != want {
		t.Errorf("encode() = %q, want %q", got, want)
	}
}

func TestKittyEncoder_Empty(t *testing.T) {
	out := &bytes.Buffer{}
	enc := &kittyEncoder{out: out}

	if err := enc.encode(nil); err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("encode(nil) wrote %q", out.String())
	}
}

func TestKittyEncoder_ChunkedPayload(t *testing.T) {
	out := &bytes.Buffer{}
	enc := &kittyEncoder{out: out}

	// Base64 of 9000 bytes is 12000 chars: three chunks at 4096.
	if err := enc.encode(bytes.Repeat([]byte{0xAB}, 9000)); err != nil {
		t.Fatalf("encode() error = %v", err)
	}

	got := out.String()
	frames := strings.Count(got, kittyStart)
	if frames != 3 {
		t.Fatalf("frame count = %d, want 3", frames)
	}
	if !strings.Contains(got, "a=T,f=100,q=2,m=1;") {
		t.Error("first frame missing continuation flag")
	}
	if !strings.Contains(got, kittyStart+"m=1;") {
		t.Error("middle frame missing m=1")
	}
	if !strings.Contains(got, kittyStart+"m=0;") {
		t.Error("final frame missing m=0")
	}

	// Reassembling the payload from the frames must round-trip.
	var encoded strings.Builder
	for _, frame := range strings.Split(got, kittyEnd) {
		if frame == "" {
			continue
		}
		_, payload, ok := strings.Cut(frame, ";")
		if !ok {
			t.Fatalf("malformed frame: %q", frame)
		}
		encoded.WriteString(payload)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded.String())
	if err != nil {
		t.Fatalf("decoding reassembled payload: %v", err)
	}
	if len(decoded) != 9000 || decoded[0] != 0xAB {
		t.Errorf("round-trip produced %d bytes", len(decoded))
	}
}

func TestTerminalSupportsImages(t *testing.T) {
	for _, env := range []string{"TERM_PROGRAM", "KITTY_WINDOW_ID", "ITERM_SESSION_ID", "TERM"} {
		t.Setenv(env, "")
	}

	if TerminalSupportsImages() {
		t.Error("TerminalSupportsImages() = true with no terminal hints")
	}

	t.Setenv("TERM_PROGRAM", "kitty")
	if !TerminalSupportsImages() {
		t.Error("TerminalSupportsImages() = false with TERM_PROGRAM=kitty")
	}

	t.Setenv("TERM_PROGRAM", "")
	t.Setenv("TERM", "xterm-kitty")
	if !TerminalSupportsImages() {
		t.Error("TerminalSupportsImages() = false with TERM=xterm-kitty")
	}
}
