package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kbedit/internal/domain"
	"kbedit/internal/editor"
	"kbedit/internal/markdown"
)

const (
	EventArticleSaved    = "article:saved"
	EventArticleRestored = "article:restored"
)

// ─────────────────────────────────────────────────────────────
// Article Service: persistence of article bodies and revisions
// ─────────────────────────────────────────────────────────────

// ArticleConfig controls how bodies are stored.
type ArticleConfig struct {
	// Structured stores the block document next to the flat text and
	// prefers it when loading.
	Structured bool
	// KeepRevisions bounds revisions per article; zero keeps all.
	KeepRevisions int
}

// ArticleService loads and saves article bodies through the serialization
// bridge and records a revision per save.
type ArticleService struct {
	articles  domain.ArticleStore
	revisions domain.RevisionStore
	cfg       ArticleConfig
	emitter   EventEmitter
	logger    *zap.Logger
}

// NewArticleService creates an ArticleService.
func NewArticleService(
	articles domain.ArticleStore,
	revisions domain.RevisionStore,
	cfg ArticleConfig,
	emitter EventEmitter,
	logger *zap.Logger,
) *ArticleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleService{
		articles:  articles,
		revisions: revisions,
		cfg:       cfg,
		emitter:   emitter,
		logger:    logger,
	}
}

// ── Articles ───────────────────────────────────────────────

func (s *ArticleService) CreateArticle(ctx context.Context, title, content string) (*domain.Article, error) {
	a := &domain.Article{
		ID:      uuid.New().String(),
		Title:   strings.TrimSpace(title),
		Content: content,
	}
	if a.Title == "" {
		a.Title = "Untitled"
	}
	if err := s.articles.CreateArticle(ctx, a); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return a, nil
}

func (s *ArticleService) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	return s.articles.GetArticle(ctx, id)
}

func (s *ArticleService) ListArticles(ctx context.Context) ([]domain.Article, error) {
	return s.articles.ListArticles(ctx)
}

// DeleteArticle removes the article and its revisions.
func (s *ArticleService) DeleteArticle(ctx context.Context, id string) error {
	if err := s.revisions.DeleteRevisions(ctx, id); err != nil {
		return err
	}
	return s.articles.DeleteArticle(ctx, id)
}

// ImportArticle creates the article or replaces its body when id exists.
// The structured document is reset so the imported text wins on load.
func (s *ArticleService) ImportArticle(ctx context.Context, id, title, content string) (*domain.Article, bool, error) {
	a, err := s.articles.GetArticle(ctx, id)
	switch {
	case err == nil:
		a.Title = title
		a.Content = content
		a.Document = ""
		if err := s.articles.UpdateArticle(ctx, a); err != nil {
			return nil, false, fmt.Errorf("import article: %w", err)
		}
		s.pushRevision(ctx, a, "import")
		return a, false, nil
	case isNotFound(err):
		a = &domain.Article{ID: id, Title: title, Content: content}
		if err := s.articles.CreateArticle(ctx, a); err != nil {
			return nil, false, fmt.Errorf("import article: %w", err)
		}
		return a, true, nil
	default:
		return nil, false, err
	}
}

// ── Bodies ─────────────────────────────────────────────────

// LoadBlocks returns the block sequence an editing session starts from.
func (s *ArticleService) LoadBlocks(ctx context.Context, id string) ([]domain.Block, error) {
	a, err := s.articles.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	structured := ""
	if s.cfg.Structured {
		structured = a.Document
	}
	blocks, err := markdown.Load(a.Content, structured)
	if err != nil {
		s.logger.Warn("structured document unusable, loading flat text",
			zap.String("article", id), zap.Error(err))
	}
	return blocks, nil
}

// SaveBlocks persists blocks as the article body and records a revision.
func (s *ArticleService) SaveBlocks(ctx context.Context, id string, blocks []domain.Block, label string) error {
	a, err := s.articles.GetArticle(ctx, id)
	if err != nil {
		return err
	}
	a.Content = markdown.ToText(blocks)
	a.Document = ""
	if s.cfg.Structured {
		doc, err := markdown.EncodeDocument(blocks)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		a.Document = doc
	}
	if err := s.articles.UpdateArticle(ctx, a); err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	s.pushRevision(ctx, a, label)

	s.logger.Debug("article saved", zap.String("article", id), zap.Int("blocks", len(blocks)))
	s.emit(ctx, EventArticleSaved, a.ID)
	return nil
}

// Saver adapts SaveBlocks to an editing session of article id.
func (s *ArticleService) Saver(id string) editor.Saver {
	return editor.SaverFunc(func(ctx context.Context, blocks []domain.Block) error {
		return s.SaveBlocks(ctx, id, blocks, "save")
	})
}

// Export renders the stored article body. Formats: text (alias markdown)
// and html.
func (s *ArticleService) Export(ctx context.Context, id, format string) (string, error) {
	a, err := s.articles.GetArticle(ctx, id)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(format) {
	case "", "text", "markdown", "md":
		return a.Content, nil
	case "html":
		return markdown.RenderHTML(a.Content)
	}
	return "", fmt.Errorf("unsupported export format %q", format)
}

// ── Revisions ──────────────────────────────────────────────

func (s *ArticleService) ListRevisions(ctx context.Context, articleID string) ([]domain.Revision, error) {
	return s.revisions.ListRevisions(ctx, articleID)
}

// RestoreRevision copies a revision's body back onto its article.
func (s *ArticleService) RestoreRevision(ctx context.Context, articleID, revisionID string) (*domain.Article, error) {
	rev, err := s.revisions.GetRevision(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if rev.ArticleID != articleID {
		return nil, fmt.Errorf("revision %s of article %s: %w", revisionID, articleID, domain.ErrNotFound)
	}
	a, err := s.articles.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	a.Content = rev.Content
	a.Document = rev.Document
	if err := s.articles.UpdateArticle(ctx, a); err != nil {
		return nil, fmt.Errorf("restore revision: %w", err)
	}
	s.pushRevision(ctx, a, "restore "+revisionID)
	s.emit(ctx, EventArticleRestored, a.ID)
	return a, nil
}

// PruneRevisions drops revisions older than age, keeping each article's
// newest one.
func (s *ArticleService) PruneRevisions(ctx context.Context, age time.Duration) (int64, error) {
	return s.revisions.PruneBefore(ctx, time.Now().UTC().Add(-age))
}

// pushRevision is best effort: a failed revision write never fails the save
// that produced it.
func (s *ArticleService) pushRevision(ctx context.Context, a *domain.Article, label string) {
	rev := &domain.Revision{
		ID:        uuid.New().String(),
		ArticleID: a.ID,
		Label:     label,
		Content:   a.Content,
		Document:  a.Document,
	}
	if err := s.revisions.PushRevision(ctx, rev, s.cfg.KeepRevisions); err != nil {
		s.logger.Warn("record revision", zap.String("article", a.ID), zap.Error(err))
	}
}

func (s *ArticleService) emit(ctx context.Context, event string, data any) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, event, data)
	}
}
