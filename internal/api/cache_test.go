package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetMissing(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("GET /books")
	assert.False(t, ok)
}

func TestCache_SetGet(t *testing.T) {
	c := NewCache()
	c.Set("GET /books", []byte(`{"success":true}`), []Tag{TagBook})

	body, ok := c.Get("GET /books")
	require.True(t, ok)
	assert.JSONEq(t, `{"success":true}`, string(body))
}

func TestCache_InvalidateMarksTaggedEntriesStale(t *testing.T) {
	c := NewCache()
	c.Set("GET /books", []byte(`1`), []Tag{TagBook})
	c.Set("GET /orders", []byte(`2`), []Tag{TagOrder})

	c.Invalidate(TagBook)

	_, ok := c.Get("GET /books")
	assert.False(t, ok, "Book-tagged entry must not be served stale")
	_, ok = c.Get("GET /orders")
	assert.True(t, ok, "Order-tagged entry is unaffected")
}

func TestCache_InvalidateUnrelatedTagKeepsEntry(t *testing.T) {
	c := NewCache()
	c.Set("GET /books", []byte(`1`), []Tag{TagBook})

	c.Invalidate(TagReview)

	_, ok := c.Get("GET /books")
	assert.True(t, ok)
}

func TestCache_MultiTagEntry(t *testing.T) {
	c := NewCache()
	c.Set("GET /reviews/book/b1", []byte(`1`), []Tag{TagReview, TagBook})

	c.Invalidate(TagBook)

	_, ok := c.Get("GET /reviews/book/b1")
	assert.False(t, ok)
}

func TestCache_SubscribeSignalsOnInvalidation(t *testing.T) {
	c := NewCache()
	ch := c.Subscribe(TagBook)

	c.Invalidate(TagBook)

	select {
	case <-ch:
	default:
		t.Fatal("expected an invalidation signal")
	}
}

func TestCache_SubscribeSignalsCoalesce(t *testing.T) {
	c := NewCache()
	ch := c.Subscribe(TagBook)

	// A slow subscriber must not block invalidation.
	c.Invalidate(TagBook)
	c.Invalidate(TagBook)
	c.Invalidate(TagBook)

	<-ch
	select {
	case <-ch:
		t.Fatal("signals should coalesce, not queue")
	default:
	}
}

func TestCacheKey_ParamOrderIsIrrelevant(t *testing.T) {
	a := url.Values{}
	a.Set("page", "1")
	a.Set("genre", "scifi")

	b := url.Values{}
	b.Set("genre", "scifi")
	b.Set("page", "1")

	assert.Equal(t, cacheKey("GET", "/books", a), cacheKey("GET", "/books", b))
	assert.NotEqual(t, cacheKey("GET", "/books", a), cacheKey("GET", "/books", nil))
}
