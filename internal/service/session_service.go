package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"kbedit/internal/domain"
	"kbedit/internal/editor"
)

// ─────────────────────────────────────────────────────────────
// Session Service: open editing sessions keyed by article id
// ─────────────────────────────────────────────────────────────

// SessionConfig tunes the editors the service opens.
type SessionConfig struct {
	// AutosaveDelay zero keeps the editor default; negative disables autosave.
	AutosaveDelay time.Duration
	HistoryLimit  int
}

// SessionEvent wraps an editor event with the article it came from.
type SessionEvent struct {
	ArticleID string `json:"articleId"`
	Data      any    `json:"data,omitempty"`
}

// SessionService owns one *editor.Editor per open article.
type SessionService struct {
	articles *ArticleService
	cfg      SessionConfig
	emitter  EventEmitter
	logger   *zap.Logger
	baseCtx  context.Context

	guard    sessionGuard
	mu       sync.Mutex
	sessions map[string]*editor.Editor
}

// NewSessionService creates a SessionService. baseCtx bounds autosaves of
// every session it opens.
func NewSessionService(
	baseCtx context.Context,
	articles *ArticleService,
	cfg SessionConfig,
	emitter EventEmitter,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		articles: articles,
		cfg:      cfg,
		emitter:  emitter,
		logger:   logger,
		baseCtx:  baseCtx,
		sessions: make(map[string]*editor.Editor),
	}
}

// Open starts an editing session for the article. Only one session per
// article may be open.
func (s *SessionService) Open(ctx context.Context, articleID string) (*editor.Editor, error) {
	if !s.guard.TryLock(articleID) {
		return nil, fmt.Errorf("open %s: %w", articleID, domain.ErrSessionOpen)
	}

	blocks, err := s.articles.LoadBlocks(ctx, articleID)
	if err != nil {
		s.guard.Unlock(articleID)
		return nil, err
	}

	logger := s.logger.With(zap.String("article", articleID))
	opts := []editor.Option{
		editor.WithSaver(s.articles.Saver(articleID)),
		editor.WithLogger(logger),
		editor.WithContext(s.baseCtx),
		editor.WithHistoryLimit(s.cfg.HistoryLimit),
	}
	if s.cfg.AutosaveDelay != 0 {
		opts = append(opts, editor.WithAutosaveDelay(s.cfg.AutosaveDelay))
	}
	if s.emitter != nil {
		opts = append(opts, editor.WithEmitter(articleEmitter{articleID: articleID, inner: s.emitter}))
	}
	ed := editor.New(blocks, opts...)

	s.mu.Lock()
	s.sessions[articleID] = ed
	s.mu.Unlock()

	logger.Info("session opened", zap.Int("blocks", ed.BlockCount()))
	return ed, nil
}

// Get returns the open session of the article.
func (s *SessionService) Get(articleID string) (*editor.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ed, ok := s.sessions[articleID]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", articleID, domain.ErrSessionClosed)
	}
	return ed, nil
}

// GetOrOpen returns the open session or opens one.
func (s *SessionService) GetOrOpen(ctx context.Context, articleID string) (*editor.Editor, error) {
	if ed, err := s.Get(articleID); err == nil {
		return ed, nil
	}
	ed, err := s.Open(ctx, articleID)
	if errors.Is(err, domain.ErrSessionOpen) {
		// Lost a race with another opener.
		return s.Get(articleID)
	}
	return ed, err
}

// Close flushes unsaved changes and ends the session. The session is
// removed even when the final save fails.
func (s *SessionService) Close(ctx context.Context, articleID string) error {
	s.mu.Lock()
	ed, ok := s.sessions[articleID]
	delete(s.sessions, articleID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("close %s: %w", articleID, domain.ErrSessionClosed)
	}
	defer s.guard.Unlock(articleID)

	if err := ed.Close(ctx); err != nil {
		return fmt.Errorf("close %s: %w", articleID, err)
	}
	s.logger.Info("session closed", zap.String("article", articleID))
	return nil
}

// CloseAll closes every session and waits for them to finish.
func (s *SessionService) CloseAll(ctx context.Context) error {
	var errs []error
	for _, id := range s.List() {
		if err := s.Close(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionClosed) {
			errs = append(errs, err)
		}
	}
	s.guard.WaitAll(ctx)
	return errors.Join(errs...)
}

// List returns the ids of open sessions, sorted.
func (s *SessionService) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RestoreRevision restores a revision of an article that has no open
// session; an open editor would overwrite the restored body on its next save.
func (s *SessionService) RestoreRevision(ctx context.Context, articleID, revisionID string) (*domain.Article, error) {
	if s.guard.Held(articleID) {
		return nil, fmt.Errorf("restore %s: %w", articleID, domain.ErrSessionOpen)
	}
	return s.articles.RestoreRevision(ctx, articleID, revisionID)
}

type articleEmitter struct {
	articleID string
	inner     EventEmitter
}

func (a articleEmitter) Emit(ctx context.Context, event string, data any) {
	a.inner.Emit(ctx, event, SessionEvent{ArticleID: a.articleID, Data: data})
}
