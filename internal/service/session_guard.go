package service

import (
	"context"
	"sync"
)

// ExportedSessionGuard is an exported alias so _test packages can test the guard.
type ExportedSessionGuard = sessionGuard

// ─────────────────────────────────────────────────────────────
// sessionGuard: one open editing session per article
// ─────────────────────────────────────────────────────────────

// sessionGuard ensures only one session per article at a time and lets
// shutdown wait for every holder to let go.
type sessionGuard struct {
	mu   sync.Mutex
	open map[string]struct{}
	wg   sync.WaitGroup
}

// TryLock attempts to claim articleID. Returns false if it is already held.
func (g *sessionGuard) TryLock(articleID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open == nil {
		g.open = make(map[string]struct{})
	}
	if _, ok := g.open[articleID]; ok {
		return false
	}
	g.open[articleID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases articleID. Must be called after TryLock returns true.
func (g *sessionGuard) Unlock(articleID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.open[articleID]; !ok {
		return
	}
	delete(g.open, articleID)
	g.wg.Done()
}

// Held reports whether articleID is currently claimed.
func (g *sessionGuard) Held(articleID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.open[articleID]
	return ok
}

// WaitAll blocks until every article is released or ctx is cancelled.
func (g *sessionGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
