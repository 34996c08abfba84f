package clipboard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCopyWritesText(t *testing.T) {
	var got string
	c := &Copier{write: func(s string) error { got = s; return nil }}
	if err := c.Copy(context.Background(), "#### Key Areas"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if got != "#### Key Areas" {
		t.Fatalf("unexpected clipboard contents: %q", got)
	}
}

func TestCopyUnsupported(t *testing.T) {
	c := &Copier{write: func(string) error { return nil }, unsupported: true}
	if err := c.Copy(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var nilCopier *Copier
	if err := nilCopier.Copy(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for nil copier, got %v", err)
	}
}

func TestCopyWrapsWriteError(t *testing.T) {
	cause := errors.New("no xclip")
	c := &Copier{write: func(string) error { return cause }}
	if err := c.Copy(context.Background(), "x"); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestCopyHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := &Copier{write: func(string) error { <-release; return nil }}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Copy(ctx, "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
