package watch

import (
	"context"
	"sync"
	"time"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/sheet"
)

// DefaultInterval is used when Config.PollInterval is not positive.
const DefaultInterval = time.Second

// Loader reads and decodes the source at path.
type Loader func(path string) (*sheet.Source, error)

// Config holds watcher configuration.
type Config struct {
	PollInterval time.Duration
	Loader       Loader
}

// Update is sent when the watched file has been reloaded, or when a reload
// failed. Exactly one of Source and Err is set.
type Update struct {
	Path   string
	Source *sheet.Source
	Err    error
	Broken bool
}

// Watcher reloads a spritesheet whenever its file changes on disk.
type Watcher struct {
	path      string
	cfg       Config
	state     FileState
	updateCh  chan Update
	triggerCh chan struct{}
	now       func() time.Time
	mu        sync.Mutex
}

// New creates a watcher for path. Call Start() to begin watching.
func New(path string, cfg Config) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultInterval
	}
	if cfg.Loader == nil {
		cfg.Loader = sheet.Load
	}
	return &Watcher{
		path:      path,
		cfg:       cfg,
		state:     FileState{Path: path},
		updateCh:  make(chan Update, 4),
		triggerCh: make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Updates returns the channel that receives reloads.
func (w *Watcher) Updates() <-chan Update {
	return w.updateCh
}

// State returns a copy of the current file state.
func (w *Watcher) State() FileState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start begins the watch loop in a goroutine. It stops when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	// Baseline so the initial file is not reported as a change.
	if fp, err := Probe(w.path); err == nil {
		w.mu.Lock()
		w.state.RecordSuccess(fp, w.now())
		w.mu.Unlock()
	}
	go w.run(ctx)
}

// TriggerNow requests an immediate reload. A triggered reload ignores
// backoff and runs even when the file looks unchanged.
func (w *Watcher) TriggerNow() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
		// Already triggered, skip
	}
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx, false)
		case <-w.triggerCh:
			w.check(ctx, true)
			ticker.Reset(w.cfg.PollInterval)
		}
	}
}

// check probes the file and reloads it when its fingerprint changed.
// force skips both the backoff and the fingerprint comparison.
func (w *Watcher) check(ctx context.Context, force bool) {
	log := ctxlog.FromContext(ctx)
	now := w.now()

	w.mu.Lock()
	ready := force || w.state.ShouldCheck(now)
	w.mu.Unlock()
	if !ready {
		return
	}

	fp, err := Probe(w.path)
	if err != nil {
		w.fail(ctx, err, now)
		return
	}

	w.mu.Lock()
	retry := w.state.LastErr != nil
	changed := w.state.Current != fp
	w.mu.Unlock()
	if !changed && !retry && !force {
		return
	}

	src, err := w.cfg.Loader(w.path)
	if err != nil {
		w.fail(ctx, err, now)
		return
	}

	w.mu.Lock()
	w.state.RecordSuccess(fp, now)
	w.mu.Unlock()

	log.Info("source reloaded", "path", w.path, "width", src.Width(), "height", src.Height())
	w.emit(Update{Path: w.path, Source: src})
}

func (w *Watcher) fail(ctx context.Context, err error, now time.Time) {
	w.mu.Lock()
	w.state.RecordFailure(err, w.cfg.PollInterval, now)
	broken := w.state.Broken()
	fails := w.state.ConsecFails
	w.mu.Unlock()

	ctxlog.FromContext(ctx).Warn("source reload failed", "path", w.path, "fails", fails, "err", err)
	w.emit(Update{Path: w.path, Err: err, Broken: broken})
}

func (w *Watcher) emit(u Update) {
	// Non-blocking send. If the channel is full, drop oldest.
	select {
	case w.updateCh <- u:
	default:
		select {
		case <-w.updateCh:
		default:
		}
		select {
		case w.updateCh <- u:
		default:
		}
	}
}
