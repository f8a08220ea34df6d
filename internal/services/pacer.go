package services

import (
	"context"
	"time"
)

// Pacer throttles page walks during ingestion.
type Pacer interface {
	// Pace is called before fetching page (1-based) and blocks as needed.
	Pace(ctx context.Context, page int)
}

// FixedPacer sleeps Delay before every Every-th page.
type FixedPacer struct {
	Every int
	Delay time.Duration
}

func (p FixedPacer) Pace(ctx context.Context, page int) {
	if p.Every <= 0 || p.Delay <= 0 || page%p.Every != 0 {
		return
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
