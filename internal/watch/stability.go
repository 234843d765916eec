package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

// ErrUnstable is returned when a file is still being written
var ErrUnstable = errors.New("file is still changing")

// StabilityChecker waits until a file stops changing before it is parsed
type StabilityChecker struct {
	fs    afero.Fs
	delay time.Duration
}

// NewStabilityChecker creates a checker that compares two stats taken delay apart
func NewStabilityChecker(fs afero.Fs, delay time.Duration) *StabilityChecker {
	return &StabilityChecker{fs: fs, delay: delay}
}

// Wait returns nil when the size and modification time of path are the same
// before and after the delay.
func (c *StabilityChecker) Wait(ctx context.Context, path string) error {
	before, err := c.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}
	// some filesystems return a live view, so copy the values out
	size, modTime := before.Size(), before.ModTime()

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	after, err := c.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}

	if size != after.Size() || !modTime.Equal(after.ModTime()) {
		return fmt.Errorf("%w: %s (%d -> %d bytes)", ErrUnstable, path, size, after.Size())
	}
	return nil
}
