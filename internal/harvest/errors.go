package harvest

import (
	"errors"

	"github.com/a3tai/formharvest/internal/watch"
)

var (
	// ErrDocumentUnreadable marks a document that could not be opened or parsed.
	// The document is left in the source folder.
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrOutputWrite marks a failed table save. Rows stay in memory.
	ErrOutputWrite = errors.New("output write failed")
	// ErrUnstable marks a document that was still being written
	ErrUnstable = watch.ErrUnstable
	// ErrPaused is returned when a batch is requested while processing is paused
	ErrPaused = errors.New("processing is paused")
)
