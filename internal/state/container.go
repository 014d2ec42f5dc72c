// Package state holds the server-side console state for dashboard views:
// one container per entity list, caching the current page together with its
// filter, sort and pagination. Containers guard against stale fetch results
// and debounce search input before refreshing.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/synaptiq/synaptiq/admin-plane/internal/notify"
	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
)

// DefaultSearchDebounce is how long search input settles before a refresh.
const DefaultSearchDebounce = 400 * time.Millisecond

// FetchFunc loads one page of rows plus the total count for the filter.
type FetchFunc[F, T any] func(ctx context.Context, filter F, sort store.Sort, page store.Page) ([]T, int, error)

// View is a read-only snapshot of a container.
type View[T any] struct {
	Rows    []T        `json:"rows"`
	Total   int        `json:"total"`
	Page    store.Page `json:"page"`
	Sort    store.Sort `json:"sort"`
	Search  string     `json:"search,omitempty"`
	Loading bool       `json:"loading"`
	Error   string     `json:"error,omitempty"`
}

// Container caches one entity list. Each fetch carries a generation number;
// a result that arrives after a newer fetch was issued is discarded instead
// of overwriting fresher rows.
type Container[F, T any] struct {
	name      string
	fetch     FetchFunc[F, T]
	setSearch func(f *F, search string)
	hub       *notify.Hub
	debounce  time.Duration

	mu      sync.Mutex
	filter  F
	sort    store.Sort
	page    store.Page
	search  string
	rows    []T
	total   int
	loading bool
	lastErr error
	gen     uint64

	pendingSearch string
	searchCh      chan struct{}
	doneCh        chan struct{}
}

// NewContainer builds a container. setSearch writes the search term into the
// entity's filter type. debounce 0 uses the default.
func NewContainer[F, T any](name string, fetch FetchFunc[F, T], setSearch func(f *F, search string), hub *notify.Hub, debounce time.Duration) *Container[F, T] {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	c := &Container[F, T]{
		name:      name,
		fetch:     fetch,
		setSearch: setSearch,
		hub:       hub,
		debounce:  debounce,
		sort:      store.DefaultSort,
		page:      store.Page{}.Normalize(),
		searchCh:  make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
	}
	go c.debounceLoop()
	return c
}

// Shutdown stops the debounce goroutine.
func (c *Container[F, T]) Shutdown() {
	close(c.doneCh)
}

// Snapshot returns the current view.
func (c *Container[F, T]) Snapshot() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View[T]{
		Rows:    c.rows,
		Total:   c.total,
		Page:    c.page,
		Sort:    c.sort,
		Search:  c.search,
		Loading: c.loading,
	}
	if c.lastErr != nil {
		v.Error = c.lastErr.Error()
	}
	return v
}

// SetFilter replaces the entity filter and resets to the first page.
func (c *Container[F, T]) SetFilter(ctx context.Context, filter F) {
	c.mu.Lock()
	c.filter = filter
	c.page.Number = 1
	c.mu.Unlock()
	c.Refresh(ctx)
}

// SetSort changes the ordering and refreshes.
func (c *Container[F, T]) SetSort(ctx context.Context, sort store.Sort) {
	c.mu.Lock()
	c.sort = sort
	c.mu.Unlock()
	c.Refresh(ctx)
}

// SetPage moves to a page and refreshes.
func (c *Container[F, T]) SetPage(ctx context.Context, page store.Page) {
	c.mu.Lock()
	c.page = page.Normalize()
	c.mu.Unlock()
	c.Refresh(ctx)
}

// SetSearch records the term and refreshes once input settles. Rapid calls
// coalesce; only the last term is fetched.
func (c *Container[F, T]) SetSearch(term string) {
	c.mu.Lock()
	c.pendingSearch = term
	c.mu.Unlock()

	select {
	case c.searchCh <- struct{}{}:
	default:
		// Already pending
	}
}

func (c *Container[F, T]) debounceLoop() {
	for {
		select {
		case <-c.doneCh:
			return
		case <-c.searchCh:
			time.Sleep(c.debounce)
			select {
			case <-c.searchCh:
				// Drain signals that arrived during the debounce window.
			default:
			}
			c.mu.Lock()
			c.search = c.pendingSearch
			c.setSearch(&c.filter, c.search)
			c.page.Number = 1
			c.mu.Unlock()
			c.Refresh(context.Background())
		}
	}
}

// Refresh fetches the current page synchronously. Concurrent refreshes are
// safe: only the newest generation's result is applied.
func (c *Container[F, T]) Refresh(ctx context.Context) {
	gen, filter, sort, page := c.begin()
	c.complete(ctx, gen, filter, sort, page)
}

// RefreshAsync is Refresh without blocking the caller.
func (c *Container[F, T]) RefreshAsync(ctx context.Context) {
	gen, filter, sort, page := c.begin()
	go c.complete(ctx, gen, filter, sort, page)
}

func (c *Container[F, T]) begin() (uint64, F, store.Sort, store.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.loading = true
	return c.gen, c.filter, c.sort, c.page
}

func (c *Container[F, T]) complete(ctx context.Context, gen uint64, filter F, sort store.Sort, page store.Page) {
	rows, total, err := c.fetch(ctx, filter, sort, page)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A newer fetch was issued while this one was in flight; its
		// result must not overwrite fresher rows.
		log.Debug().Str("container", c.name).Uint64("gen", gen).Msg("Discarded stale fetch result")
		return
	}
	c.loading = false
	if err != nil {
		c.lastErr = err
		log.Error().Err(err).Str("container", c.name).Msg("Fetch failed")
		if c.hub != nil {
			c.hub.Publish(notify.NewEvent("console.fetch_failed", c.name, "", notify.SeverityError, err.Error()))
		}
		return
	}
	c.lastErr = nil
	c.rows = rows
	c.total = total
	if c.hub != nil {
		c.hub.Publish(notify.NewEvent("console.refreshed", c.name, "", notify.SeverityInfo, c.name+" view refreshed"))
	}
}
