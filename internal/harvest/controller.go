package harvest

import (
	"context"
	"sync"
	"time"
)

// Status is a snapshot of the harvester's progress
type Status struct {
	Paused    bool      `json:"paused"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Pending   int       `json:"pending"`
	Batches   int       `json:"batches"`
	Rows      int       `json:"rows"`
	LastFile  string    `json:"last_file,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	LastBatch time.Time `json:"last_batch,omitempty"`
}

// Controller pauses and resumes processing and tracks its progress. Pausing
// takes effect between documents; a document being read is always finished.
type Controller struct {
	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
	status  Status
}

// NewController creates a running controller
func NewController() *Controller {
	return &Controller{resumed: make(chan struct{})}
}

// Pause stops processing before the next document
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume continues processing
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	close(c.resumed)
	c.resumed = make(chan struct{})
}

// Paused reports whether processing is paused
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Status returns a copy of the current progress
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	s.Paused = c.paused
	return s
}

// waitResumed blocks while paused
func (c *Controller) waitResumed(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.paused {
			c.mu.Unlock()
			return nil
		}
		resumed := c.resumed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resumed:
		}
	}
}

func (c *Controller) update(fn func(*Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.status)
}
