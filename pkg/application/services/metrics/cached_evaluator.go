package metrics

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

// DefaultCacheEntries bounds the memoised evaluator.
const DefaultCacheEntries = 1024

// CachedEvaluator memoises Evaluate per proposal id and policy. Proposals are
// immutable snapshots, so a proposal id identifies its metrics for a policy.
type CachedEvaluator struct {
	cache *lru.Cache[string, entities.CommitteeMetrics]
}

// NewCachedEvaluator creates an evaluator holding up to size results.
func NewCachedEvaluator(size int) (*CachedEvaluator, error) {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	cache, err := lru.New[string, entities.CommitteeMetrics](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics cache: %w", err)
	}
	return &CachedEvaluator{cache: cache}, nil
}

// Evaluate returns cached metrics for p, computing them on a miss. Proposals
// without an id are never cached.
func (e *CachedEvaluator) Evaluate(p *entities.CommitteeProposal, policy entities.CommitteePolicy) entities.CommitteeMetrics {
	if p == nil || p.ID == "" {
		return Evaluate(p, policy)
	}
	key := p.ID + "|" + policy.Fingerprint()
	if m, ok := e.cache.Get(key); ok {
		return m
	}
	m := Evaluate(p, policy)
	e.cache.Add(key, m)
	return m
}

// Len reports how many results are cached.
func (e *CachedEvaluator) Len() int {
	return e.cache.Len()
}
