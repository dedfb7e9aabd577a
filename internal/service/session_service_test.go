package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbedit/internal/domain"
	"kbedit/internal/editor"
	"kbedit/internal/service"
)

func newSessionService(t *testing.T, delay time.Duration) (*service.SessionService, *service.ArticleService, *service.MockEmitter) {
	t.Helper()
	articles, _ := newArticleService(t, service.ArticleConfig{Structured: true, KeepRevisions: 5})
	emitter := &service.MockEmitter{}
	sessions := service.NewSessionService(context.Background(), articles,
		service.SessionConfig{AutosaveDelay: delay}, emitter, nil)
	t.Cleanup(func() { _ = sessions.CloseAll(context.Background()) })
	return sessions, articles, emitter
}

func TestSessionService_OneSessionPerArticle(t *testing.T) {
	ctx := context.Background()
	sessions, articles, _ := newSessionService(t, -1)
	a, err := articles.CreateArticle(ctx, "One", "text")
	require.NoError(t, err)

	ed, err := sessions.Open(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ed.BlockCount())

	_, err = sessions.Open(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrSessionOpen)

	same, err := sessions.GetOrOpen(ctx, a.ID)
	require.NoError(t, err)
	assert.Same(t, ed, same)
	assert.Equal(t, []string{a.ID}, sessions.List())
}

func TestSessionService_OpenMissingArticleReleasesGuard(t *testing.T) {
	ctx := context.Background()
	sessions, _, _ := newSessionService(t, -1)

	_, err := sessions.Open(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = sessions.Open(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound, "a failed open must not leave the article locked")
}

func TestSessionService_CloseFlushesEdits(t *testing.T) {
	ctx := context.Background()
	sessions, articles, emitter := newSessionService(t, -1)
	a, err := articles.CreateArticle(ctx, "Flush", "")
	require.NoError(t, err)

	ed, err := sessions.Open(ctx, a.ID)
	require.NoError(t, err)
	_, err = ed.AddBlock(domain.BlockTypeHeading, editor.At(0), editor.WithContent(domain.Text("Intro")))
	require.NoError(t, err)

	require.NoError(t, sessions.Close(ctx, a.ID))
	stored, err := articles.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "## Intro\n\n", stored.Content)
	assert.Equal(t, 1, emitter.Count(editor.EventSaved))
	assert.Equal(t, 1, emitter.Count(editor.EventDirty))

	_, err = sessions.Get(a.ID)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.ErrorIs(t, sessions.Close(ctx, a.ID), domain.ErrSessionClosed)

	reopened, err := sessions.Open(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reopened.BlockCount())
	assert.Equal(t, domain.BlockTypeHeading, reopened.Blocks()[0].Type)
}

func TestSessionService_AutosaveReachesStore(t *testing.T) {
	ctx := context.Background()
	sessions, articles, _ := newSessionService(t, 30*time.Millisecond)
	a, err := articles.CreateArticle(ctx, "Auto", "")
	require.NoError(t, err)

	ed, err := sessions.Open(ctx, a.ID)
	require.NoError(t, err)
	id := ed.Blocks()[0].ID
	require.NoError(t, ed.UpdateBlock(id, domain.Patch{Content: domain.Text("typed")}))

	require.Eventually(t, func() bool {
		stored, err := articles.GetArticle(ctx, a.ID)
		return err == nil && stored.Content == "typed"
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !ed.HasUnsavedChanges() }, time.Second, 10*time.Millisecond)
}

func TestSessionService_RestoreRequiresClosedSession(t *testing.T) {
	ctx := context.Background()
	sessions, articles, _ := newSessionService(t, -1)
	a, err := articles.CreateArticle(ctx, "Restore", "")
	require.NoError(t, err)

	ed, err := sessions.Open(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, ed.UpdateBlock(ed.Blocks()[0].ID, domain.Patch{Content: domain.Text("v1")}))
	require.NoError(t, ed.Save(ctx))

	revs, err := articles.ListRevisions(ctx, a.ID)
	require.NoError(t, err)
	require.NotEmpty(t, revs)

	_, err = sessions.RestoreRevision(ctx, a.ID, revs[0].ID)
	assert.ErrorIs(t, err, domain.ErrSessionOpen)

	require.NoError(t, sessions.Close(ctx, a.ID))
	restored, err := sessions.RestoreRevision(ctx, a.ID, revs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", restored.Content)
}

func TestRetentionService_Sweep(t *testing.T) {
	ctx := context.Background()
	articles, emitter := newArticleService(t, service.ArticleConfig{})
	a, err := articles.CreateArticle(ctx, "Old", "")
	require.NoError(t, err)
	require.NoError(t, articles.SaveBlocks(ctx, a.ID, []domain.Block{domain.NewParagraph("1")}, "save"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, articles.SaveBlocks(ctx, a.ID, []domain.Block{domain.NewParagraph("2")}, "save"))

	retention := service.NewRetentionService(articles, time.Millisecond, "@every 1h", emitter, nil)
	time.Sleep(5 * time.Millisecond)
	n, err := retention.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, emitter.Count(service.EventRevisionsPruned))

	revs, _ := articles.ListRevisions(ctx, a.ID)
	require.Len(t, revs, 1)
	assert.Equal(t, "2", revs[0].Content)

	require.NoError(t, retention.Start(ctx))
	retention.Stop()
}

func TestRetentionService_InvalidSchedule(t *testing.T) {
	articles, _ := newArticleService(t, service.ArticleConfig{})
	retention := service.NewRetentionService(articles, time.Hour, "not a cron", nil, nil)
	assert.Error(t, retention.Start(context.Background()))
}
