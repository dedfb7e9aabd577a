// Package watch imports a folder of markdown files as articles and keeps
// them in sync while the files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"kbedit/internal/domain"
)

// DefaultDebounce coalesces bursts of writes to one file.
const DefaultDebounce = 500 * time.Millisecond

// Importer stores an imported file as an article body.
type Importer interface {
	ImportArticle(ctx context.Context, id, title, content string) (*domain.Article, bool, error)
}

// Result describes one imported file.
type Result struct {
	Path      string
	ArticleID string
	Created   bool
}

// Syncer imports markdown files into articles.
type Syncer struct {
	importer Importer
	logger   *zap.Logger
	debounce time.Duration
	onImport func(Result)
}

type Option func(*Syncer)

func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(s *Syncer) { s.debounce = d }
}

// OnImport registers a callback run after every import made by Watch.
func OnImport(fn func(Result)) Option {
	return func(s *Syncer) { s.onImport = fn }
}

func New(importer Importer, opts ...Option) *Syncer {
	s := &Syncer{
		importer: importer,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportDir imports every markdown file directly inside dir.
func (s *Syncer) ImportDir(ctx context.Context, dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var results []Result
	for _, e := range entries {
		if e.IsDir() || !IsMarkdown(e.Name()) {
			continue
		}
		r, err := s.ImportFile(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// ImportFile imports one file. The article id comes from the file name and
// the title from the first "# " heading, falling back to the file name.
func (s *Syncer) ImportFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	content := strings.TrimRight(string(data), " \t\r\n")
	id := ArticleID(path)
	if id == "" {
		return Result{}, fmt.Errorf("no article id for %s", path)
	}

	_, created, err := s.importer.ImportArticle(ctx, id, Title(path, content), content)
	if err != nil {
		return Result{}, fmt.Errorf("import %s: %w", path, err)
	}
	s.logger.Debug("imported file",
		zap.String("path", path), zap.String("article", id), zap.Bool("created", created))
	return Result{Path: path, ArticleID: id, Created: created}, nil
}

// Watch reimports markdown files in dir when they are written, until ctx is
// cancelled.
func (s *Syncer) Watch(ctx context.Context, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(absDir); err != nil {
		return fmt.Errorf("watch %s: %w", absDir, err)
	}
	s.logger.Info("watching folder", zap.String("dir", absDir))

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
		wg     sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		for path, t := range timers {
			if t.Stop() {
				wg.Done()
			}
			delete(timers, path)
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !IsMarkdown(event.Name) {
				continue
			}
			path, _ := filepath.Abs(event.Name)

			mu.Lock()
			if t, exists := timers[path]; exists && t.Stop() {
				wg.Done()
			}
			wg.Add(1)
			var t *time.Timer
			t = time.AfterFunc(s.debounce, func() {
				defer wg.Done()
				mu.Lock()
				if timers[path] == t {
					delete(timers, path)
				}
				mu.Unlock()

				r, err := s.ImportFile(ctx, path)
				if err != nil {
					s.logger.Warn("sync failed", zap.String("path", path), zap.Error(err))
					return
				}
				if s.onImport != nil {
					s.onImport(r)
				}
			})
			timers[path] = t
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// IsMarkdown reports whether name has a markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// ArticleID derives a stable article id from a file name:
// "Getting Started.md" becomes "getting-started".
func ArticleID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Title returns the text of the first level-one heading in content, or the
// file name without extension.
func Title(path, content string) string {
	for _, line := range strings.Split(content, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			if t := strings.TrimSpace(rest); t != "" {
				return t
			}
		}
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
