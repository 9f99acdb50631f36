package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// Cached memoizes ScoredItems per strategy and text.
type Cached struct {
	inner ports.Classifier
	cache *cache.Cache
}

var _ ports.Classifier = (*Cached)(nil)

// NewCached wraps inner; ttl <= 0 disables caching and returns inner as is.
func NewCached(inner ports.Classifier, ttl time.Duration) ports.Classifier {
	if ttl <= 0 {
		return inner
	}
	return &Cached{inner: inner, cache: cache.New(ttl, 2*ttl)}
}

// Name implements ports.Classifier.
func (c *Cached) Name() string { return c.inner.Name() }

// Info implements ports.Classifier.
func (c *Cached) Info() domain.ClassifierInfo { return c.inner.Info() }

// Score returns the cached result for identical text, re-keyed to the
// caller's source id. Errors are never cached.
func (c *Cached) Score(item domain.ExtractedItem) (domain.ScoredItem, error) {
	key := c.key(item.Text)
	if v, ok := c.cache.Get(key); ok {
		scored := v.(domain.ScoredItem)
		scored.SourceID = item.SourceID
		scored.Text = item.Text
		return scored, nil
	}

	scored, err := c.inner.Score(item)
	if err != nil {
		return domain.ScoredItem{}, err
	}
	c.cache.SetDefault(key, scored)
	return scored, nil
}

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.Name() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
