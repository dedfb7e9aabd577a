package editor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kbedit/internal/domain"
)

type Option func(*Editor)

// WithSaver sets the persistence collaborator. Without one, saves only
// clear the dirty flag.
func WithSaver(s Saver) Option {
	return func(e *Editor) { e.saver = s }
}

// WithAutosaveDelay overrides DefaultAutosaveDelay. Zero disables autosave.
func WithAutosaveDelay(d time.Duration) Option {
	return func(e *Editor) { e.autosaveDelay = d }
}

func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.history = NewHistory(n) }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithEmitter(em Emitter) Option {
	return func(e *Editor) { e.emitter = em }
}

// WithContext sets the context autosaves run under.
func WithContext(ctx context.Context) Option {
	return func(e *Editor) { e.ctx = ctx }
}

func withClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// ── AddBlock options ───────────────────────────────────────

type AddOption func(*addConfig)

type addConfig struct {
	index    int
	hasIndex bool
	content  domain.Content
	meta     domain.Meta
}

// At inserts the new block at index, clamped to the document bounds.
func At(index int) AddOption {
	return func(c *addConfig) {
		c.index = index
		c.hasIndex = true
	}
}

// WithContent replaces the variant's default content.
func WithContent(content domain.Content) AddOption {
	return func(c *addConfig) { c.content = content }
}

// WithMeta replaces the variant's default meta.
func WithMeta(meta domain.Meta) AddOption {
	return func(c *addConfig) { c.meta = meta }
}
