package view

import (
	"context"
	"fmt"
	"io"

	"github.com/manash/corroscan/internal/fetch"
)

// Previewer renders a fetched image inline using the kitty graphics
// protocol. Callers should gate on TerminalSupportsImages.
type Previewer struct {
	out     io.Writer
	fetcher *fetch.Fetcher
}

func NewPreviewer(out io.Writer, fetcher *fetch.Fetcher) *Previewer {
	return &Previewer{out: out, fetcher: fetcher}
}

func (p *Previewer) Preview(ctx context.Context, ref string) error {
	data, err := p.fetcher.Fetch(ctx, ref)
	if err != nil {
		return err
	}

	enc := &kittyEncoder{out: p.out}
	if err := enc.encode(data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	fmt.Fprintln(p.out)
	return nil
}
