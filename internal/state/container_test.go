package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptiq/synaptiq/admin-plane/internal/notify"
	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
)

type fakeFilter struct {
	Search string
}

// fakeSource is a controllable fetch backend.
type fakeSource struct {
	mu      sync.Mutex
	rows    []string
	err     error
	fetches []fakeFilter
}

func (f *fakeSource) fetch(_ context.Context, filter fakeFilter, _ store.Sort, _ store.Page) ([]string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, filter)
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.rows, len(f.rows), nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func newTestContainer(src *fakeSource, debounce time.Duration) *Container[fakeFilter, string] {
	return NewContainer("test", src.fetch,
		func(f *fakeFilter, s string) { f.Search = s }, notify.NewHub(), debounce)
}

func TestRefreshLoadsRows(t *testing.T) {
	src := &fakeSource{rows: []string{"a", "b"}}
	c := newTestContainer(src, time.Hour)
	defer c.Shutdown()

	c.Refresh(context.Background())

	v := c.Snapshot()
	assert.Equal(t, []string{"a", "b"}, v.Rows)
	assert.Equal(t, 2, v.Total)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Error)
}

func TestRefreshRecordsError(t *testing.T) {
	src := &fakeSource{err: errors.New("backend down")}
	c := newTestContainer(src, time.Hour)
	defer c.Shutdown()

	c.Refresh(context.Background())

	v := c.Snapshot()
	assert.Contains(t, v.Error, "backend down")

	// A later successful refresh clears the error.
	src.mu.Lock()
	src.err = nil
	src.rows = []string{"ok"}
	src.mu.Unlock()
	c.Refresh(context.Background())
	assert.Empty(t, c.Snapshot().Error)
}

func TestStaleResultDiscarded(t *testing.T) {
	src := &fakeSource{rows: []string{"fresh"}}
	c := newTestContainer(src, time.Hour)
	defer c.Shutdown()

	// Simulate an old in-flight fetch: begin, then a newer full refresh
	// completes, then the old result arrives.
	oldGen, filter, sort, page := c.begin()
	c.Refresh(context.Background())

	src.mu.Lock()
	src.rows = []string{"stale"}
	src.mu.Unlock()
	c.complete(context.Background(), oldGen, filter, sort, page)

	assert.Equal(t, []string{"fresh"}, c.Snapshot().Rows,
		"superseded fetch must not overwrite newer rows")
}

func TestSetFilterResetsPage(t *testing.T) {
	src := &fakeSource{rows: []string{"a"}}
	c := newTestContainer(src, time.Hour)
	defer c.Shutdown()

	c.SetPage(context.Background(), store.Page{Number: 5, Size: 10})
	require.Equal(t, 5, c.Snapshot().Page.Number)

	c.SetFilter(context.Background(), fakeFilter{Search: "x"})
	assert.Equal(t, 1, c.Snapshot().Page.Number)
}

func TestSearchDebounceCoalesces(t *testing.T) {
	src := &fakeSource{rows: []string{"a"}}
	c := newTestContainer(src, 30*time.Millisecond)
	defer c.Shutdown()

	// Rapid typing: only the settled term reaches the backend.
	c.SetSearch("a")
	c.SetSearch("ac")
	c.SetSearch("acm")
	c.SetSearch("acme")

	deadline := time.Now().Add(2 * time.Second)
	for src.fetchCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.NotZero(t, src.fetchCount(), "debounced refresh never fired")
	assert.Equal(t, 1, src.fetchCount(), "rapid input must coalesce into one fetch")

	src.mu.Lock()
	got := src.fetches[0].Search
	src.mu.Unlock()
	assert.Equal(t, "acme", got)
	assert.Equal(t, "acme", c.Snapshot().Search)
}
