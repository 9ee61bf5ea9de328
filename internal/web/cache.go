package web

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// responseCache keeps rendered response bodies for a short TTL so repeated
// polling of the same view does not regenerate the calendar or refetch feeds.
type responseCache struct {
	c   *ristretto.Cache[string, cachedResponse]
	ttl time.Duration
}

type cachedResponse struct {
	contentType string
	body        []byte
}

func newResponseCache(maxCostBytes int64, ttl time.Duration) (*responseCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, cachedResponse]{
		NumCounters: maxCostBytes / 1000 * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &responseCache{c: c, ttl: ttl}, nil
}

func (rc *responseCache) get(key string) (cachedResponse, bool) {
	return rc.c.Get(key)
}

func (rc *responseCache) set(key string, v cachedResponse) {
	rc.c.SetWithTTL(key, v, int64(len(v.body)), rc.ttl)
}

// wait blocks until pending sets are applied.
func (rc *responseCache) wait() {
	rc.c.Wait()
}

func (rc *responseCache) close() {
	rc.c.Close()
}
