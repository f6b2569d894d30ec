package kb

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Registry hands out one KnowledgeBase per session. The least recently used
// session is dropped once Size sessions are held; its next upload rebuilds it.
type Registry struct {
	mu           sync.Mutex
	cache        *lru.Cache[string, *KnowledgeBase]
	queryTimeout time.Duration
	logger       *zap.Logger
}

func NewRegistry(size int, queryTimeout time.Duration, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = 128
	}
	r := &Registry{queryTimeout: queryTimeout, logger: logger.Named("kb_registry")}
	cache, err := lru.NewWithEvict[string, *KnowledgeBase](size, func(session string, _ *KnowledgeBase) {
		r.logger.Debug("evicted knowledge base", zap.String("session", session))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

func (r *Registry) Get(session string) *KnowledgeBase {
	r.mu.Lock()
	defer r.mu.Unlock()

	if k, ok := r.cache.Get(session); ok {
		return k
	}
	k := New(r.queryTimeout, r.logger.With(zap.String("session", session)))
	r.cache.Add(session, k)
	return k
}

func (r *Registry) Len() int {
	return r.cache.Len()
}
