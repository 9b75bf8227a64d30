// Package reload republishes a dataset file on a cron schedule.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mcs-education/starcat"
	"github.com/mcs-education/starcat/internal/config"
)

// Reloader loads src into a catalog on every tick of its schedule.
type Reloader struct {
	cat     *starcat.Catalog
	src     starcat.Source
	cron    *cron.Cron
	timeout time.Duration

	runMutex sync.Mutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// New validates schedule and registers the reload job.
func New(cat *starcat.Catalog, src starcat.Source, schedule string) (*Reloader, error) {
	r := &Reloader{
		cat: cat,
		src: src,
		cron: cron.New(
			cron.WithParser(config.CronParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		timeout: 30 * time.Second,
	}
	if _, err := r.cron.AddFunc(schedule, r.tick); err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", schedule, err)
	}
	return r, nil
}

// RunOnce loads the source now. A rejected dataset leaves the published
// snapshot untouched and is returned as the error.
func (r *Reloader) RunOnce(ctx context.Context) (*starcat.Snapshot, error) {
	prev := r.cat.Current()
	snap, err := r.cat.Load(ctx, r.src)
	if err != nil {
		slog.Warn("Scheduled reload rejected",
			"component", "reload",
			"source", r.src.Name(),
			"error", err,
		)
		return nil, err
	}
	if prev != nil && prev.Fingerprint == snap.Fingerprint {
		slog.Debug("Dataset content unchanged",
			"component", "reload",
			"generation", snap.Generation,
		)
	}
	return snap, nil
}

func (r *Reloader) tick() {
	r.runMutex.Lock()
	parent := r.ctx
	r.runMutex.Unlock()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()
	_, _ = r.RunOnce(ctx)
}

// Start begins scheduling. Ticks stop when ctx is done or Stop is called.
func (r *Reloader) Start(ctx context.Context) {
	r.runMutex.Lock()
	defer r.runMutex.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.cron.Start()
	slog.Info("Dataset reload scheduled", "component", "reload", "source", r.src.Name())
}

// Stop halts scheduling and waits for a running reload to finish.
func (r *Reloader) Stop() {
	r.runMutex.Lock()
	if !r.running {
		r.runMutex.Unlock()
		return
	}
	r.running = false
	r.cancel()
	r.runMutex.Unlock()

	cronCtx := r.cron.Stop()
	<-cronCtx.Done()
	slog.Info("Dataset reload stopped", "component", "reload")
}

// Next reports the next scheduled run, or the zero time when not started.
func (r *Reloader) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
