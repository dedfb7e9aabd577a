package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbedit/internal/domain"
	"kbedit/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "kb.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// ─────────────────────────────────────────────────────────────
// DB
// ─────────────────────────────────────────────────────────────

func TestNew_MigrationsAreRerunnable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.db")

	db, err := storage.New(path, dir)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = storage.New(path, dir)
	require.NoError(t, err)
	assert.Equal(t, storage.DialectSQLite, db.Dialect())
	require.NoError(t, db.Close())
}

func TestBuildDSN(t *testing.T) {
	p := storage.ConnParams{Host: "db.local", Database: "kb", Username: "editor"}

	dsn, err := storage.BuildDSN(storage.DialectPostgres, p, "pw")
	require.NoError(t, err)
	assert.Equal(t, "host=db.local port=5432 user=editor password=pw dbname=kb sslmode=disable", dsn)

	p.SSLMode = "require"
	dsn, err = storage.BuildDSN(storage.DialectMySQL, p, "pw")
	require.NoError(t, err)
	assert.Equal(t, "editor:pw@tcp(db.local:3306)/kb?parseTime=true&charset=utf8mb4&tls=true", dsn)

	_, err = storage.BuildDSN(storage.DialectSQLite, p, "")
	assert.Error(t, err)
}

func TestParseDialect(t *testing.T) {
	d, err := storage.ParseDialect("postgresql")
	require.NoError(t, err)
	assert.Equal(t, storage.DialectPostgres, d)

	_, err = storage.ParseDialect("oracle")
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────
// ArticleStore
// ─────────────────────────────────────────────────────────────

func TestArticleStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := storage.NewArticleStore(newTestDB(t))

	a := &domain.Article{ID: "a1", Title: "Onboarding", Content: "Welcome"}
	require.NoError(t, store.CreateArticle(ctx, a))
	assert.False(t, a.CreatedAt.IsZero())

	got, err := store.GetArticle(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", got.Title)
	assert.Equal(t, "Welcome", got.Content)
	assert.Empty(t, got.Document)

	got.Content = "## Welcome"
	got.Document = `{"version":1,"blocks":[]}`
	require.NoError(t, store.UpdateArticle(ctx, got))

	again, err := store.GetArticle(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "## Welcome", again.Content)
	assert.Equal(t, `{"version":1,"blocks":[]}`, again.Document)

	list, err := store.ListArticles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, store.DeleteArticle(ctx, "a1"))
	_, err = store.GetArticle(ctx, "a1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArticleStore_UpdateMissing(t *testing.T) {
	store := storage.NewArticleStore(newTestDB(t))
	err := store.UpdateArticle(context.Background(), &domain.Article{ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────
// RevisionStore
// ─────────────────────────────────────────────────────────────

func TestRevisionStore_PushPrunesToKeep(t *testing.T) {
	ctx := context.Background()
	store := storage.NewRevisionStore(newTestDB(t))
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.PushRevision(ctx, &domain.Revision{
			ID:        string(rune('a' + i)),
			ArticleID: "art",
			Label:     "save",
			Content:   "v",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}, 3))
	}

	revs, err := store.ListRevisions(ctx, "art")
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, "e", revs[0].ID, "newest first")
	assert.Equal(t, "c", revs[2].ID)

	r, err := store.GetRevision(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "art", r.ArticleID)

	_, err = store.GetRevision(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevisionStore_PruneBeforeKeepsNewestPerArticle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewRevisionStore(newTestDB(t))
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	push := func(id, article string, at time.Time) {
		require.NoError(t, store.PushRevision(ctx, &domain.Revision{
			ID: id, ArticleID: article, Content: id, CreatedAt: at,
		}, 0))
	}
	push("x1", "x", old)
	push("x2", "x", old.Add(time.Hour))
	push("y1", "y", old)
	push("y2", "y", time.Now().UTC())

	n, err := store.PruneBefore(ctx, old.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	xs, _ := store.ListRevisions(ctx, "x")
	require.Len(t, xs, 1)
	assert.Equal(t, "x2", xs[0].ID)

	ys, _ := store.ListRevisions(ctx, "y")
	require.Len(t, ys, 1)
	assert.Equal(t, "y2", ys[0].ID)

	require.NoError(t, store.DeleteRevisions(ctx, "y"))
	ys, _ = store.ListRevisions(ctx, "y")
	assert.Empty(t, ys)
}
