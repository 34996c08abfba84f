package clipboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("clipboard unavailable")

type Copier struct {
	write       func(string) error
	unsupported bool
}

// New returns a Copier using the system clipboard.
func New() *Copier {
	return &Copier{write: clipboard.WriteAll, unsupported: clipboard.Unsupported}
}

// Copy writes text to the clipboard, giving up when ctx is done. The
// underlying write may still finish in the background.
func (c *Copier) Copy(ctx context.Context, text string) error {
	if c == nil || c.unsupported || c.write == nil {
		return ErrUnavailable
	}

	done := make(chan error, 1)
	go func() { done <- c.write(text) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("clipboard write failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("clipboard write: %w", ctx.Err())
	}
}
