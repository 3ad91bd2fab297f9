// Package watch observes content, layout, and static directories and turns
// raw filesystem notifications into debounced change batches the build loop
// can act on.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

const defaultDebounce = 250 * time.Millisecond

// Op classifies a filesystem change.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// Event is a single filtered filesystem change.
type Event struct {
	Path string
	Op   Op
	At   time.Time
}

// Handler receives a debounced batch of events. Handler errors are logged,
// not fatal: the watcher keeps running.
type Handler func(ctx context.Context, events []Event) error

// Config controls what the watcher observes and how changes are coalesced.
type Config struct {
	// Paths lists directory roots watched recursively.
	Paths []string
	// Debounce is the quiet window applied before a batch is emitted.
	Debounce time.Duration
	// Ignore lists glob patterns matched against base names and
	// slash-separated relative paths; matches never emit events.
	Ignore []string
}

// Dependencies carries optional collaborators.
type Dependencies struct {
	Logger interfaces.LoggerProvider
}

// Watcher wraps fsnotify with recursive registration, ignore filtering, and
// debounced batch delivery.
type Watcher struct {
	cfg      Config
	notifier *fsnotify.Watcher
	logger   interfaces.Logger
	roots    []string

	mu       sync.Mutex
	handlers []Handler
	pending  map[string]Event

	timerMu sync.Mutex
	timer   *time.Timer
}

// New validates the configuration and prepares a watcher. Call Start to begin
// observing.
func New(cfg Config, deps Dependencies) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	roots := make([]string, 0, len(cfg.Paths))
	for _, root := range cfg.Paths {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		roots = append(roots, filepath.Clean(root))
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("watch: at least one path is required")
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create notifier: %w", err)
	}

	return &Watcher{
		cfg:      cfg,
		notifier: notifier,
		logger:   logging.WatchLogger(deps.Logger),
		roots:    roots,
		pending:  map[string]Event{},
	}, nil
}

// OnChange registers a handler invoked with every debounced batch.
func (w *Watcher) OnChange(handler Handler) {
	if handler == nil {
		return
	}
	w.mu.Lock()
	w.handlers = append(w.handlers, handler)
	w.mu.Unlock()
}

// Start registers the configured roots and processes notifications until ctx
// is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addRecursive(root); err != nil {
			return err
		}
	}
	w.logger.Info("watching for changes", "paths", strings.Join(w.roots, ", "), "debounce", w.cfg.Debounce.String())

	go w.loop(ctx)
	return nil
}

// Close releases the underlying notifier.
func (w *Watcher) Close() error {
	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
	return w.notifier.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.notifier.Events:
			if !ok {
				return
			}
			w.handleNotification(ctx, event)
		case err, ok := <-w.notifier.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleNotification(ctx context.Context, notification fsnotify.Event) {
	changePath := filepath.Clean(notification.Name)
	if w.ignored(changePath) {
		return
	}

	// New directories join the watch set so nested changes keep arriving.
	if notification.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(changePath); err == nil && info.IsDir() {
			if err := w.addRecursive(changePath); err != nil {
				w.logger.Warn("watch new directory", "path", changePath, "error", err)
			}
			return
		}
	}

	op, ok := classify(notification.Op)
	if !ok {
		return
	}

	w.mu.Lock()
	w.pending[changePath] = Event{Path: changePath, Op: op, At: time.Now()}
	w.mu.Unlock()

	w.scheduleFlush(ctx)
}

// scheduleFlush arms (or re-arms) the debounce timer; the batch fires once
// the quiet window passes without further changes.
func (w *Watcher) scheduleFlush(ctx context.Context) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.Debounce, func() {
		w.flush(ctx)
	})
}

func (w *Watcher) flush(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	events := make([]Event, 0, len(w.pending))
	for _, event := range w.pending {
		events = append(events, event)
	}
	w.pending = map[string]Event{}
	handlers := append([]Handler(nil), w.handlers...)
	w.mu.Unlock()

	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	w.logger.Debug("change batch", "events", len(events))
	for _, handler := range handlers {
		if err := handler(ctx, events); err != nil {
			w.logger.Error("change handler failed", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(walkPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if walkPath != root && w.ignored(walkPath) {
			return filepath.SkipDir
		}
		if err := w.notifier.Add(walkPath); err != nil {
			return fmt.Errorf("watch: add %s: %w", walkPath, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(changePath string) bool {
	return Ignored(w.cfg.Ignore, w.roots, changePath)
}

// Ignored reports whether changePath matches any of the ignore globs.
// Patterns match against the base name and against the path relative to each
// watched root, so both "*.swp" and "drafts/*" work.
func Ignored(patterns []string, roots []string, changePath string) bool {
	base := filepath.Base(changePath)
	candidates := []string{base, filepath.ToSlash(changePath)}
	for _, root := range roots {
		if rel, err := filepath.Rel(root, changePath); err == nil && !strings.HasPrefix(rel, "..") {
			candidates = append(candidates, filepath.ToSlash(rel))
		}
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		for _, candidate := range candidates {
			if ok, err := path.Match(pattern, candidate); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func classify(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	default:
		return "", false
	}
}
