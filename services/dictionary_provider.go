package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/substitution"
)

// SnapshotDictionaryProvider holds the active dictionary as an immutable snapshot.
// Reload swaps the snapshot atomically; callers holding an older snapshot keep using it.
type SnapshotDictionaryProvider struct {
	source  DictionarySource
	logger  Logger
	metrics MetricsService

	current atomic.Pointer[substitution.Dictionary]
	reload  sync.Mutex
}

// NewDictionaryProvider creates a provider with no snapshot loaded yet
func NewDictionaryProvider(source DictionarySource, logger Logger, metrics MetricsService) *SnapshotDictionaryProvider {
	if logger == nil {
		logger = NoopLogger{}
	}
	return &SnapshotDictionaryProvider{
		source:  source,
		logger:  logger.With(String("component", "dictionary")),
		metrics: metrics,
	}
}

// Init performs the initial load. When optional is true a failed load leaves
// an empty dictionary in place and only logs a warning.
func (p *SnapshotDictionaryProvider) Init(ctx context.Context, optional bool) error {
	_, err := p.Reload(ctx)
	if err == nil {
		return nil
	}
	if !optional {
		return errors.WrapError(err, errors.ErrTypeConfiguration, errors.ErrCodeDictionaryUnavailable,
			fmt.Sprintf("failed to load dictionary from %s", p.source.Describe()))
	}

	p.logger.Warn("Dictionary unavailable, continuing with an empty dictionary",
		String("source", p.source.Describe()),
		String("error", err.Error()))
	return nil
}

// Current implements DictionaryProvider
func (p *SnapshotDictionaryProvider) Current() *substitution.Dictionary {
	return p.current.Load()
}

// Source implements DictionaryProvider
func (p *SnapshotDictionaryProvider) Source() string {
	return p.source.Describe()
}

// Reload implements DictionaryProvider. On failure the previous snapshot stays active.
func (p *SnapshotDictionaryProvider) Reload(ctx context.Context) (*substitution.Dictionary, error) {
	p.reload.Lock()
	defer p.reload.Unlock()

	start := time.Now()
	dict, err := p.source.Load(ctx)
	if err != nil {
		p.count("dictionary.reload.errors")
		p.logger.Error("Dictionary load failed", err, String("source", p.source.Describe()))
		return nil, err
	}

	p.current.Store(dict)
	p.count("dictionary.reload.success")
	if p.metrics != nil {
		p.metrics.SetGauge("dictionary.entries", float64(dict.Len()), nil)
		p.metrics.RecordDuration("dictionary.reload.duration", time.Since(start), nil)
	}

	if dups := dict.Duplicates(); len(dups) > 0 {
		p.logger.Warn("Dictionary contains duplicate shorthands, later entries win",
			Int("duplicates", len(dups)),
			Any("keys", dups))
	}
	p.logger.Info("Dictionary loaded",
		String("source", p.source.Describe()),
		Int("entries", dict.Len()),
		Duration("duration", time.Since(start)))

	return dict, nil
}

func (p *SnapshotDictionaryProvider) count(name string) {
	if p.metrics != nil {
		p.metrics.IncrementCounter(name, nil)
	}
}

// DictionaryWatcher reloads a file dictionary when the file changes on disk
type DictionaryWatcher struct {
	provider DictionaryProvider
	path     string
	delay    time.Duration
	logger   Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// NewDictionaryWatcher creates a watcher for the dictionary file at path
func NewDictionaryWatcher(provider DictionaryProvider, path string, logger Logger) *DictionaryWatcher {
	if logger == nil {
		logger = NoopLogger{}
	}
	return &DictionaryWatcher{
		provider: provider,
		path:     path,
		delay:    200 * time.Millisecond,
		logger:   logger.With(String("component", "dictionary_watcher")),
	}
}

// WithDebounce overrides the delay between the last change and the reload
func (w *DictionaryWatcher) WithDebounce(delay time.Duration) *DictionaryWatcher {
	w.delay = delay
	return w
}

// Run watches the directory holding the dictionary until ctx is done.
// The directory is watched rather than the file so that editors which
// replace the file through a rename are still noticed.
func (w *DictionaryWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	defer w.stopPending()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	name := filepath.Base(w.path)
	w.logger.Info("Watching dictionary for changes", String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Dictionary watcher error", err)
		}
	}
}

func (w *DictionaryWatcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(w.delay, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.provider.Reload(ctx); err != nil {
			w.logger.Warn("Keeping previous dictionary after failed reload", String("error", err.Error()))
		}
	})
}

func (w *DictionaryWatcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
}
