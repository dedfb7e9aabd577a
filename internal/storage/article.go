package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kbedit/internal/domain"
)

// ArticleStore implements domain.ArticleStore over SQL.
type ArticleStore struct {
	db *DB
}

func NewArticleStore(db *DB) *ArticleStore {
	return &ArticleStore{db: db}
}

const articleColumns = `id, title, content, document, created_at, updated_at`

func (s *ArticleStore) CreateArticle(ctx context.Context, a *domain.Article) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO articles (`+articleColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		a.ID, a.Title, a.Content, nullString(a.Document), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func (s *ArticleStore) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	row := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`), id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get article %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

func (s *ArticleStore) ListArticles(ctx context.Context) ([]domain.Article, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func (s *ArticleStore) UpdateArticle(ctx context.Context, a *domain.Article) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`UPDATE articles SET title = ?, content = ?, document = ?, updated_at = ? WHERE id = ?`),
		a.Title, a.Content, nullString(a.Document), a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update article %s: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *ArticleStore) DeleteArticle(ctx context.Context, id string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM articles WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (*domain.Article, error) {
	var (
		a   domain.Article
		doc sql.NullString
	)
	if err := r.Scan(&a.ID, &a.Title, &a.Content, &doc, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Document = doc.String
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
