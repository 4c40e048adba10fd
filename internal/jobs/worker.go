// Package jobs runs background maintenance for the content index.
package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor performs one unit of background work per tick. The
// backfill processor implements this to embed rows indexed without an
// embedding.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a JobProcessor on a fixed poll interval until stopped.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a Worker; it does not start polling until Start is
// called.
func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start polls until the context is cancelled or Stop is called.
// Processor errors are logged and the loop keeps going; a transient
// provider or database failure must not kill the worker.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("jobs: worker started, polling every %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("jobs: worker stopped, context cancelled")
			return
		case <-w.stopChan:
			log.Println("jobs: worker stopped, stop signal received")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("jobs: processing failed: %v", err)
			}
		}
	}
}

// Stop signals the polling loop to exit and waits for it to drain.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("jobs: worker shutdown complete")
}
