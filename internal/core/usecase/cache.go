package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/core/ports"
)

const DefaultCacheTTL = time.Hour

// Cache tier names. L1 is exact-match and functional; L2 (semantic match)
// and L3 (pre-warmed hot chunks) are probed in fixed order after L1 so
// future implementations slot in without changing the call contract.
const (
	CacheLevelL1 = "L1"
	CacheLevelL2 = "L2"
	CacheLevelL3 = "L3"
)

type cacheEnvelope struct {
	CachedAt   time.Time                 `json:"cached_at"`
	TTLSeconds int64                     `json:"cache_ttl"`
	Answer     *domain.FormattedResponse `json:"answer"`
}

// tierProbe returns the cached answer or ErrCacheMiss.
type tierProbe func(ctx context.Context, key string) (*domain.FormattedResponse, error)

// AnswerCache is the tiered lookup/store keyed by a deterministic hash of
// the normalized query, scope and answer-shaping parameters.
type AnswerCache struct {
	backend ports.CacheBackend
	ttl     time.Duration
	logger  *slog.Logger
	tiers   []struct {
		level string
		probe tierProbe
	}
}

func NewAnswerCache(backend ports.CacheBackend, ttl time.Duration, logger *slog.Logger) *AnswerCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &AnswerCache{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
	}
	c.tiers = []struct {
		level string
		probe tierProbe
	}{
		{CacheLevelL1, c.probeExact},
		{CacheLevelL2, probeUnimplemented},
		{CacheLevelL3, probeUnimplemented},
	}
	return c
}

// CacheKey derives the deterministic address of an answer. Normalization is
// lower-casing plus whitespace collapse; every parameter that changes the
// rendered answer participates in the hash.
func CacheKey(query, documentID string, p domain.QueryParams) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	material := fmt.Sprintf("%s|%s|%s|%s|%.2f|%d",
		normalized, documentID, p.Mode, p.Format, p.Strictness, p.TopK)
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// Get probes tiers in fixed order. A hit is annotated with the cache level;
// backend failures are logged and treated as misses.
func (c *AnswerCache) Get(ctx context.Context, query, documentID string, p domain.QueryParams) (*domain.FormattedResponse, bool) {
	key := CacheKey(query, documentID, p)
	for _, tier := range c.tiers {
		answer, err := tier.probe(ctx, key)
		if err != nil {
			if !domain.IsKind(err, domain.ErrCacheMiss) {
				c.logger.Warn("cache_probe_failed", "level", tier.level, "error", err)
			}
			continue
		}
		answer.CacheHit = true
		answer.CacheLevel = tier.level
		return answer, true
	}
	return nil, false
}

func (c *AnswerCache) probeExact(ctx context.Context, key string) (*domain.FormattedResponse, error) {
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Corrupt entry, treat as a miss.
		return nil, domain.WrapError(domain.ErrCacheMiss, "decode cache entry", err)
	}
	if envelope.Answer == nil {
		return nil, domain.ErrCacheMiss
	}
	if envelope.TTLSeconds > 0 {
		expiry := envelope.CachedAt.Add(time.Duration(envelope.TTLSeconds) * time.Second)
		if time.Now().After(expiry) {
			return nil, domain.ErrCacheMiss
		}
	}
	return envelope.Answer, nil
}

func probeUnimplemented(context.Context, string) (*domain.FormattedResponse, error) {
	return nil, domain.ErrCacheMiss
}

// Set always writes to L1. The stored record carries cached_at and the TTL
// for observability; zero ttl falls back to the configured default.
func (c *AnswerCache) Set(ctx context.Context, query, documentID string, p domain.QueryParams, answer *domain.FormattedResponse, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	stored := *answer
	stored.CacheHit = false
	stored.CacheLevel = ""

	raw, err := json.Marshal(cacheEnvelope{
		CachedAt:   time.Now().UTC(),
		TTLSeconds: int64(ttl.Seconds()),
		Answer:     &stored,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	key := CacheKey(query, documentID, p)
	if err := c.backend.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Clear removes entries matching pattern from every backend tier and
// returns the aggregate count. Wildcard "*" clears everything.
func (c *AnswerCache) Clear(ctx context.Context, pattern string) (int, error) {
	return c.backend.Clear(ctx, pattern)
}
