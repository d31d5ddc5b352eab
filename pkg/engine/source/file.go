package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/ladder/ast"
	"mercator-hq/ladder/pkg/ladder/parser"
)

// DefaultDebounceInterval is the quiet period before a change is reported.
const DefaultDebounceInterval = 100 * time.Millisecond

// FileSource loads ladders from YAML files on disk.
type FileSource struct {
	path     string
	logger   *slog.Logger
	parser   *parser.Parser
	debounce time.Duration
}

// NewFileSource creates a new file-based ladder source.
// The path can be either a single file or a directory.
// If it's a directory, all .yaml and .yml files beneath it are loaded.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     path,
		logger:   logger,
		parser:   parser.NewParser(),
		debounce: DefaultDebounceInterval,
	}
}

// WithDebounce sets the debounce interval used by Watch.
func (s *FileSource) WithDebounce(d time.Duration) *FileSource {
	if d > 0 {
		s.debounce = d
	}
	return s
}

// WithStrictMode makes the source reject ladder files with unknown fields.
func (s *FileSource) WithStrictMode(strict bool) *FileSource {
	s.parser.WithStrictMode(strict)
	return s
}

// Path returns the configured path.
func (s *FileSource) Path() string {
	return s.path
}

// LoadLadders loads all ladders from the configured path. A single
// invalid file fails the whole load so a bad edit never silently drops
// a ladder that callers depend on.
func (s *FileSource) LoadLadders(ctx context.Context) ([]*ast.Ladder, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var ladders []*ast.Ladder

	if info.IsDir() {
		ladders, err = s.loadDirectory(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		ladder, err := s.loadFile(s.path)
		if err != nil {
			return nil, err
		}
		ladders = []*ast.Ladder{ladder}
	}

	s.logger.Info("loaded ladders from source",
		"path", s.path,
		"ladder_count", len(ladders),
	)

	return ladders, nil
}

// loadDirectory loads all ladder files from a directory tree.
func (s *FileSource) loadDirectory(ctx context.Context) ([]*ast.Ladder, error) {
	var ladders []*ast.Ladder

	err := filepath.WalkDir(s.path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != s.path && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isLadderFile(path) {
			return nil
		}

		ladder, err := s.loadFile(path)
		if err != nil {
			return err
		}
		ladders = append(ladders, ladder)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load directory %q: %w", s.path, err)
	}

	return ladders, nil
}

// loadFile parses a single ladder file.
func (s *FileSource) loadFile(path string) (*ast.Ladder, error) {
	ladder, err := s.parser.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ladder file %q: %w", path, err)
	}

	s.logger.Debug("loaded ladder file",
		"path", path,
		"ladder_name", ladder.Name,
		"rule_count", len(ladder.Rules),
	)

	return ladder, nil
}

// Watch watches the path for changes and sends debounced events on the
// returned channel. The channel is closed when the context is cancelled.
func (s *FileSource) Watch(ctx context.Context) (<-chan engine.LadderEvent, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	var onlyFile string
	if info, err := os.Stat(s.path); err == nil && !info.IsDir() {
		onlyFile = filepath.Clean(s.path)
	}

	if err := addPath(w, s.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch path: %w", err)
	}

	out := &eventSink{ch: make(chan engine.LadderEvent, 1)}
	debouncer := NewDebouncer(s.debounce)

	s.logger.Info("ladder file watcher started",
		"path", s.path,
		"debounce_ms", s.debounce.Milliseconds(),
	)

	go func() {
		defer func() {
			debouncer.Stop()
			w.Close()
			out.close()
			s.logger.Info("ladder file watcher stopped")
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !shouldProcessEvent(event) {
					continue
				}
				if onlyFile != "" && filepath.Clean(event.Name) != onlyFile {
					continue
				}

				s.logger.Debug("file event detected",
					"path", event.Name,
					"op", event.Op.String(),
				)

				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addPath(w, event.Name); err != nil {
							s.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
				}

				ev := engine.LadderEvent{Type: eventType(event.Op), Path: event.Name}
				debouncer.Trigger(func() {
					out.send(ctx, ev)
				})

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Error("file watcher error", "error", err)
				out.send(ctx, engine.LadderEvent{Error: err})
			}
		}
	}()

	return out.ch, nil
}

// eventSink guards a channel that debounced callbacks may send on after
// the watch loop has decided to exit.
type eventSink struct {
	mu     sync.Mutex
	ch     chan engine.LadderEvent
	closed bool
}

func (s *eventSink) send(ctx context.Context, ev engine.LadderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	case <-ctx.Done():
	}
}

func (s *eventSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// addPath adds a file, or a directory and its subdirectories, to the watcher.
func addPath(w *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		// Watch the parent so atomic-rename saves are still seen.
		return w.Add(filepath.Dir(path))
	}

	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && isHidden(p) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", p, err)
		}
		return nil
	})
}

// shouldProcessEvent determines if an event should trigger a reload.
func shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if isHidden(event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return true
		}
	}
	return isLadderFile(event.Name)
}

func eventType(op fsnotify.Op) engine.LadderEventType {
	switch {
	case op.Has(fsnotify.Create):
		return engine.LadderEventCreated
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return engine.LadderEventDeleted
	default:
		return engine.LadderEventModified
	}
}

func isLadderFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
