package domain

import (
	"context"
	"time"
)

// Article is a knowledge-base article. Content is the flat text body the CMS
// schema persists; Document, when set, is the structured block document.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Document  string    `json:"document,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Revision is the article body as of one successful save.
type Revision struct {
	ID        string    `json:"id"`
	ArticleID string    `json:"articleId"`
	Label     string    `json:"label"`
	Content   string    `json:"content"`
	Document  string    `json:"document,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ArticleStore interface {
	CreateArticle(ctx context.Context, a *Article) error
	GetArticle(ctx context.Context, id string) (*Article, error)
	ListArticles(ctx context.Context) ([]Article, error)
	UpdateArticle(ctx context.Context, a *Article) error
	DeleteArticle(ctx context.Context, id string) error
}

type RevisionStore interface {
	// PushRevision records r and prunes the article's history to keep entries.
	PushRevision(ctx context.Context, r *Revision, keep int) error
	ListRevisions(ctx context.Context, articleID string) ([]Revision, error)
	GetRevision(ctx context.Context, id string) (*Revision, error)
	// PruneBefore deletes revisions older than cutoff, always keeping the
	// newest revision of each article.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteRevisions(ctx context.Context, articleID string) error
}
