package cms

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"cuepoint/internal/logging"
)

// SeedWatcher watches the CMS seed file and re-applies it on change, so
// editors can land copy updates without a restart. Edits made through the
// API survive: a reload only upserts the keys the seed file defines.
type SeedWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	store       *Store
	seedPath    string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats SeedWatcherStats
}

// SeedWatcherStats tracks watcher activity for debugging.
type SeedWatcherStats struct {
	Reloads        int
	ReloadFailures int
	LastEventTime  time.Time
}

// NewSeedWatcher creates a watcher for the given seed file.
func NewSeedWatcher(seedPath string, store *Store) (*SeedWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &SeedWatcher{
		watcher:     watcher,
		store:       store,
		seedPath:    seedPath,
		debounceMap: make(map[string]time.Time),
		debounceDur: 300 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the loop runs in a goroutine.
func (sw *SeedWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	if sw.running {
		sw.mu.Unlock()
		return nil // Already running
	}
	sw.running = true
	sw.mu.Unlock()

	// Watch the directory: editors typically replace files on save, which
	// would drop a watch on the file itself.
	if err := sw.watcher.Add(filepath.Dir(sw.seedPath)); err != nil {
		logging.Get(logging.CategoryCMS).Warn("SeedWatcher: initial watch failed: %v", err)
	} else {
		logging.CMS("SeedWatcher: watching %s", sw.seedPath)
	}

	go sw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (sw *SeedWatcher) Stop() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return
	}
	sw.running = false
	sw.mu.Unlock()

	close(sw.stopCh)
	<-sw.doneCh

	if err := sw.watcher.Close(); err != nil {
		logging.Get(logging.CategoryCMS).Error("SeedWatcher: error closing watcher: %v", err)
	}
	logging.CMS("SeedWatcher: stopped")
}

// Stats returns a copy of the watcher stats.
func (sw *SeedWatcher) Stats() SeedWatcherStats {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.stats
}

func (sw *SeedWatcher) run(ctx context.Context) {
	defer close(sw.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-sw.stopCh:
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handleEvent(event)

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryCMS).Error("SeedWatcher error: %v", err)

		case <-debounceTicker.C:
			sw.processDebounced()
		}
	}
}

func (sw *SeedWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(sw.seedPath) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return // Ignore chmod, remove, etc.
	}

	sw.mu.Lock()
	sw.stats.LastEventTime = time.Now()
	sw.debounceMap[event.Name] = time.Now()
	sw.mu.Unlock()
}

func (sw *SeedWatcher) processDebounced() {
	sw.mu.Lock()
	now := time.Now()
	ready := false
	for path, eventTime := range sw.debounceMap {
		if now.Sub(eventTime) >= sw.debounceDur {
			delete(sw.debounceMap, path)
			ready = true
		}
	}
	sw.mu.Unlock()

	if !ready {
		return
	}
	sw.reload()
}

func (sw *SeedWatcher) reload() {
	entries, err := LoadSeeds(sw.seedPath)
	if err != nil {
		logging.Get(logging.CategoryCMS).Error("SeedWatcher: reload failed: %v", err)
		sw.mu.Lock()
		sw.stats.ReloadFailures++
		sw.mu.Unlock()
		return
	}

	if err := sw.store.SetBatch(entries); err != nil {
		logging.Get(logging.CategoryCMS).Error("SeedWatcher: apply failed: %v", err)
		sw.mu.Lock()
		sw.stats.ReloadFailures++
		sw.mu.Unlock()
		return
	}

	sw.mu.Lock()
	sw.stats.Reloads++
	sw.mu.Unlock()
	logging.CMS("SeedWatcher: re-applied %d entries from %s", len(entries), sw.seedPath)
}
