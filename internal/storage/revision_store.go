package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kbedit/internal/domain"
)

// RevisionStore keeps the save history of articles in SQL.
type RevisionStore struct {
	db *DB
}

func NewRevisionStore(db *DB) *RevisionStore {
	return &RevisionStore{db: db}
}

const revisionColumns = `id, article_id, label, content, document, created_at`

// PushRevision records r and prunes the article's history to the newest keep
// entries. keep <= 0 disables pruning.
func (s *RevisionStore) PushRevision(ctx context.Context, r *domain.Revision, keep int) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO revisions (`+revisionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		r.ID, r.ArticleID, r.Label, r.Content, nullString(r.Document), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	if keep > 0 {
		if err := s.pruneIfNeeded(ctx, r.ArticleID, keep); err != nil {
			return err
		}
	}
	return nil
}

// ListRevisions returns an article's revisions, newest first.
func (s *RevisionStore) ListRevisions(ctx context.Context, articleID string) ([]domain.Revision, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT `+revisionColumns+` FROM revisions WHERE article_id = ?
		 ORDER BY created_at DESC`), articleID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revs []domain.Revision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revs = append(revs, *r)
	}
	return revs, rows.Err()
}

func (s *RevisionStore) GetRevision(ctx context.Context, id string) (*domain.Revision, error) {
	row := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT `+revisionColumns+` FROM revisions WHERE id = ?`), id)
	r, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get revision %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return r, nil
}

// PruneBefore deletes revisions created before cutoff. The newest revision of
// every article survives regardless of age.
func (s *RevisionStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	// Collect ids first and close the cursor before writing; sqlite runs on
	// a single connection.
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, article_id, created_at FROM revisions ORDER BY article_id, created_at DESC`)
	if err != nil {
		return 0, fmt.Errorf("scan revisions for prune: %w", err)
	}

	var (
		ids         []string
		lastArticle string
	)
	for rows.Next() {
		var (
			id, articleID string
			createdAt     time.Time
		)
		if err := rows.Scan(&id, &articleID, &createdAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan revision: %w", err)
		}
		newest := articleID != lastArticle
		lastArticle = articleID
		if !newest && createdAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	return s.deleteIDs(ctx, ids)
}

func (s *RevisionStore) DeleteRevisions(ctx context.Context, articleID string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM revisions WHERE article_id = ?`), articleID)
	if err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}

// pruneIfNeeded removes the oldest revisions when the article has more than
// keep of them.
func (s *RevisionStore) pruneIfNeeded(ctx context.Context, articleID string, keep int) error {
	var count int
	if err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT COUNT(*) FROM revisions WHERE article_id = ?`), articleID).Scan(&count); err != nil {
		return fmt.Errorf("count revisions: %w", err)
	}
	if count <= keep {
		return nil
	}

	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id FROM revisions WHERE article_id = ?
		 ORDER BY created_at ASC LIMIT ?`), articleID, count-keep)
	if err != nil {
		return fmt.Errorf("select revisions to prune: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	rows.Close()

	_, err = s.deleteIDs(ctx, ids)
	return err
}

func (s *RevisionStore) deleteIDs(ctx context.Context, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		res, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM revisions WHERE id = ?`), id)
		if err != nil {
			return deleted, fmt.Errorf("delete revision: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += n
		}
	}
	return deleted, nil
}

func scanRevision(r rowScanner) (*domain.Revision, error) {
	var (
		rev domain.Revision
		doc sql.NullString
	)
	if err := r.Scan(&rev.ID, &rev.ArticleID, &rev.Label, &rev.Content, &doc, &rev.CreatedAt); err != nil {
		return nil, err
	}
	rev.Document = doc.String
	return &rev, nil
}
