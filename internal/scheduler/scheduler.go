package scheduler

import (
	"context"
	"log"
	"time"
)

// Job is one sweep iteration. Errors are logged and the timer keeps running.
type Job func(ctx context.Context) error

// Ticker runs a named job immediately and then on a fixed interval until the
// context is cancelled. A panicking or failing tick never aborts the loop.
type Ticker struct {
	name     string
	interval time.Duration
	job      Job
}

func NewTicker(name string, interval time.Duration, job Job) *Ticker {
	return &Ticker{name: name, interval: interval, job: job}
}

func (t *Ticker) Run(ctx context.Context) {
	t.tick(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (t *Ticker) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("%s sweep panicked: %v", t.name, r)
		}
	}()
	if err := t.job(ctx); err != nil {
		log.Printf("%s sweep error: %v", t.name, err)
	}
}
