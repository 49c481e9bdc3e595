package library

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/libria/internal/anilibria"
	"github.com/mmcdole/libria/internal/domain"
)

// Commands provides asynchronous operations that hit network or disk.
// Implements domain.CatalogCommands.
type Commands struct {
	source domain.ReleaseSource
	store  domain.Store
	logger *slog.Logger

	merging atomic.Bool // single-slot guard around store.Merge
	syncing atomic.Bool // single-slot guard around SyncAsync
	group   singleflight.Group
	wg      sync.WaitGroup

	obsMu     sync.RWMutex
	observers []domain.SyncObserver
}

// NewCommands creates a new Commands instance. source may be nil when only
// local payloads are merged.
func NewCommands(source domain.ReleaseSource, store domain.Store, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commands{source: source, store: store, logger: logger}
}

func (c *Commands) AddObserver(o domain.SyncObserver) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// Wait blocks until every background task has finished.
func (c *Commands) Wait() {
	c.wg.Wait()
}

// MergeAllReleases merges payload in the background and notifies observers
// when done. It returns domain.ErrSyncInProgress if a merge is already running.
func (c *Commands) MergeAllReleases(payload string) error {
	if !c.merging.CompareAndSwap(false, true) {
		c.logger.Debug("merge rejected, another merge is running")
		return domain.ErrSyncInProgress
	}

	runID := uuid.NewString()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		start := time.Now()
		merge, err := c.store.Merge(payload)
		c.merging.Store(false)

		result := domain.SyncResult{
			RunID:    runID,
			Merge:    merge,
			Err:      err,
			Duration: time.Since(start),
		}
		if err != nil {
			c.logger.Error("merge failed", "run", runID, "error", err)
		} else {
			c.logger.Debug("merge finished", "run", runID, "total", merge.Total, "duration", result.Duration)
		}
		c.notify(result)
	}()
	return nil
}

// Sync fetches the catalog and the schedule, merges the catalog and stores
// the schedule. Concurrent callers share one run.
func (c *Commands) Sync(ctx context.Context) (domain.SyncResult, error) {
	v, err, shared := c.group.Do("sync", func() (any, error) {
		return c.sync(ctx)
	})
	result, _ := v.(domain.SyncResult)
	if shared {
		c.logger.Debug("sync shared with concurrent caller", "run", result.RunID)
	}
	return result, err
}

// SyncAsync runs Sync in the background and notifies observers once.
// It returns domain.ErrSyncInProgress while another background sync or a
// merge is running.
func (c *Commands) SyncAsync(ctx context.Context) error {
	if c.merging.Load() || !c.syncing.CompareAndSwap(false, true) {
		return domain.ErrSyncInProgress
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := c.Sync(ctx)
		c.syncing.Store(false)
		if result.Err == nil {
			result.Err = err
		}
		c.notify(result)
	}()
	return nil
}

func (c *Commands) sync(ctx context.Context) (domain.SyncResult, error) {
	result := domain.SyncResult{RunID: uuid.NewString()}
	start := time.Now()

	if c.source == nil {
		result.Err = domain.ErrServerOffline
		return result, result.Err
	}

	c.logger.Info("sync started", "run", result.RunID)

	var list, schedule string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = c.source.Fetch(gctx, domain.QueryList)
		return err
	})
	g.Go(func() error {
		var err error
		schedule, err = c.source.Fetch(gctx, domain.QuerySchedule)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Error("sync fetch failed", "run", result.RunID, "error", err)
		result.Err = err
		result.Duration = time.Since(start)
		return result, err
	}

	// Disk work below is not cancellable.
	if !c.merging.CompareAndSwap(false, true) {
		result.Err = domain.ErrSyncInProgress
		result.Duration = time.Since(start)
		return result, result.Err
	}
	merge, err := c.store.Merge(list)
	c.merging.Store(false)

	result.Merge = merge
	if err != nil {
		c.logger.Error("sync merge failed", "run", result.RunID, "error", err)
		result.Err = err
		result.Duration = time.Since(start)
		return result, err
	}

	if err := c.storeSchedule(schedule); err != nil {
		c.logger.Warn("schedule not updated", "run", result.RunID, "error", err)
	}

	result.Duration = time.Since(start)
	c.logger.Info("sync finished",
		"run", result.RunID,
		"added", merge.Added,
		"updated", merge.Updated,
		"total", merge.Total,
		"duration", result.Duration,
	)
	return result, nil
}

func (c *Commands) storeSchedule(payload string) error {
	schedule, err := anilibria.ParseSchedule(payload)
	if err != nil {
		return err
	}
	return c.store.SetSchedule(schedule)
}

func (c *Commands) notify(result domain.SyncResult) {
	c.obsMu.RLock()
	observers := make([]domain.SyncObserver, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()

	for _, o := range observers {
		o.OnSyncDone(result)
	}
}
