package memory

import (
	"context"
	"fmt"
	"sync"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

// Locker keeps per-article leases inside the process.
type Locker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

var _ ports.Locker = (*Locker)(nil)

// NewLocker returns an empty lease table.
func NewLocker() *Locker {
	return &Locker{held: make(map[int64]struct{})}
}

// Acquire takes the lease for articleID or fails with domain.ErrRefreshInProgress.
func (l *Locker) Acquire(_ context.Context, articleID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[articleID]; busy {
		return nil, fmt.Errorf("article %d: %w", articleID, domain.ErrRefreshInProgress)
	}
	l.held[articleID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, articleID)
			l.mu.Unlock()
		})
	}, nil
}
