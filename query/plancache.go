package query

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// cacheEntry is one memoized compiled query: the CompiledIntent produced by
// the parser. Prepare keys it by normalized text alone: it passes no
// parameter names to normalizeCacheKey, so the parameter shape is not part
// of the key and paramKeys is left empty.
type cacheEntry struct {
	intent    CompiledIntent
	paramKeys []string
	tag       uuid.UUID
}

// planCache is the single dictionary described in spec §4.9: a fixed
// maximum capacity (default 1024), clearing the entire dictionary on
// overflow rather than an LRU-style partial eviction.
type planCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]cacheEntry
}

func newPlanCache(capacity int) *planCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &planCache{capacity: capacity, entries: make(map[string]cacheEntry)}
}

// normalizeCacheKey implements spec §9 Open Question (b): collapse runs of
// whitespace to a single space, then fold identifier case through
// collation. The queryText itself (not a parsed token stream) is
// normalized — a pragmatic approximation that treats the whole string
// uniformly, documented as such in DESIGN.md since a real token-aware
// quoted-identifier pass would require lexing the parser never exposes.
func normalizeCacheKey(queryText string, paramNames []string, collation func(string) string) string {
	fields := strings.Fields(queryText)
	joined := strings.Join(fields, " ")
	if collation == nil {
		collation = strings.ToLower
	}
	key := collation(joined)
	if len(paramNames) > 0 {
		sorted := append([]string{}, paramNames...)
		key += "|" + strings.Join(sorted, ",")
	}
	return key
}

func (pc *planCache) get(key string) (cacheEntry, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	e, ok := pc.entries[key]
	return e, ok
}

func (pc *planCache) put(key string, entry cacheEntry) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if len(pc.entries) >= pc.capacity {
		pc.entries = make(map[string]cacheEntry)
	}
	pc.entries[key] = entry
}
