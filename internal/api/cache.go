package api

import (
	"net/url"
	"strings"
	"sync"
)

// Tag labels cached responses and mutations. A mutation declaring a tag
// marks every cached response carrying that tag stale, so the next read
// refetches instead of serving stale data.
type Tag string

const (
	TagUser    Tag = "User"
	TagProfile Tag = "Profile"
	TagBook    Tag = "Book"
	TagCart    Tag = "Cart"
	TagOrder   Tag = "Order"
	TagReview  Tag = "Review"
)

type cacheEntry struct {
	body  []byte
	tags  []Tag
	stale bool
}

// Cache is the in-process response cache of the access layer, keyed by
// (method, path, normalized params). Invalidation is explicit pub/sub:
// queries register their tags on Set, mutations publish via Invalidate,
// and external observers can Subscribe to a tag.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	subs    map[Tag][]chan struct{}
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		subs:    make(map[Tag][]chan struct{}),
	}
}

// Get returns the cached body for key, or ok=false when the entry is
// missing or has been invalidated.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	return e.body, true
}

func (c *Cache) Set(key string, body []byte, tags []Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{body: body, tags: tags}
}

// Invalidate marks every entry carrying any of the given tags stale and
// notifies subscribers. Which component issued the mutation is
// irrelevant; the tags alone drive staleness.
func (c *Cache) Invalidate(tags ...Tag) {
	if len(tags) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.stale {
			continue
		}
		for _, t := range tags {
			if hasTag(e.tags, t) {
				e.stale = true
				break
			}
		}
	}

	for _, t := range tags {
		for _, ch := range c.subs[t] {
			select {
			case ch <- struct{}{}:
			default: // subscriber is behind, it will see the next signal
			}
		}
	}
}

// Subscribe returns a channel that receives a signal whenever the tag
// is invalidated. Signals are coalesced, not queued.
func (c *Cache) Subscribe(tag Tag) <-chan struct{} {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[tag] = append(c.subs[tag], ch)
	return ch
}

func hasTag(tags []Tag, t Tag) bool {
	for _, have := range tags {
		if have == t {
			return true
		}
	}
	return false
}

// cacheKey normalizes (method, path, params) into a stable key;
// url.Values.Encode sorts by key, so parameter order never matters.
func cacheKey(method, path string, params url.Values) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(path)
	if len(params) > 0 {
		b.WriteByte('?')
		b.WriteString(params.Encode())
	}
	return b.String()
}
