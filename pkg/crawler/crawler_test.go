package crawler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yandl/pkg/logger"
	"yandl/pkg/parser"
	"yandl/pkg/progress"
)

const listing = "https://yande.re/post?tags=sky"

// fakeSource returns one post per page and fails the pages in failPages
type fakeSource struct {
	lastPage  int
	lastErr   error
	failPages map[int]bool
	delay     time.Duration

	mu        sync.Mutex
	fetched   []string
	inFlight  int32
	maxFlight int32
}

func (f *fakeSource) ResolveLastPage(ctx context.Context, listingURL string) (int, error) {
	return f.lastPage, f.lastErr
}

func (f *fakeSource) Fetch(ctx context.Context, pageURL string) ([]parser.RawPost, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxFlight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxFlight, max, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.fetched = append(f.fetched, pageURL)
	f.mu.Unlock()

	var page int
	fmt.Sscanf(pageURL, listing+"&page=%d", &page)
	if f.failPages[page] {
		return nil, errors.New("boom")
	}
	return []parser.RawPost{{DirectURL: fmt.Sprintf("https://files.example/p%d.jpg", page)}}, nil
}

func TestCrawlExplicitRange(t *testing.T) {
	src := &fakeSource{}
	rec := &progress.Recorder{}
	c := NewCoordinator(src, 2, rec, logger.NewTestLogger())

	res, err := c.Crawl(context.Background(), listing, 2, 4)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Crawled)
	assert.Empty(t, res.Failures)

	var names []string
	for _, r := range res.Records {
		names = append(names, r.StandardFilename)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"p2.jpg", "p3.jpg", "p4.jpg"}, names)

	require.Len(t, rec.Finished, 1)
	assert.Equal(t, progress.Counter{Label: CounterLabel, Completed: 3, Total: 3}, rec.Finished[0])
	assert.Len(t, rec.Updates, 3)
	for i, u := range rec.Updates {
		assert.Equal(t, i+1, u.Completed, "counter advances once per page")
	}
}

func TestCrawlResolvesLastPage(t *testing.T) {
	src := &fakeSource{lastPage: 3}
	c := NewCoordinator(src, 1, nil, logger.NewTestLogger())

	res, err := c.Crawl(context.Background(), listing, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, res.EndPage)
	assert.Equal(t, 3, res.Crawled)
	assert.Equal(t, []string{listing + "&page=1", listing + "&page=2", listing + "&page=3"}, src.fetched)
}

func TestCrawlMalformedPaginationIsFatal(t *testing.T) {
	src := &fakeSource{lastErr: fmt.Errorf("%w: page link %q", parser.ErrMalformedPagination, "x")}
	c := NewCoordinator(src, 1, nil, logger.NewTestLogger())

	_, err := c.Crawl(context.Background(), listing, 1, 0)
	assert.ErrorIs(t, err, parser.ErrMalformedPagination)
	assert.Empty(t, src.fetched)
}

func TestCrawlPageFailureDoesNotAbort(t *testing.T) {
	src := &fakeSource{failPages: map[int]bool{2: true}}
	log := logger.NewTestLogger()
	c := NewCoordinator(src, 3, nil, log)

	res, err := c.Crawl(context.Background(), listing, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Crawled)
	assert.Len(t, res.Records, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Page)
	assert.Contains(t, res.Failures[0].Error(), "boom")
	assert.True(t, log.HasMessage("page failed"))
}

func TestCrawlEndBeforeStart(t *testing.T) {
	src := &fakeSource{}
	log := logger.NewTestLogger()
	c := NewCoordinator(src, 1, nil, log)

	res, err := c.Crawl(context.Background(), listing, 5, 2)
	require.NoError(t, err)

	assert.Empty(t, res.Records)
	assert.Equal(t, 0, res.Crawled)
	assert.Empty(t, src.fetched)
	assert.True(t, log.HasMessage("end page is before start page, nothing to crawl"))
}

func TestCrawlInvalidStart(t *testing.T) {
	c := NewCoordinator(&fakeSource{}, 1, nil, logger.NewTestLogger())

	_, err := c.Crawl(context.Background(), listing, 0, 3)
	assert.Error(t, err)
}

func TestCrawlRespectsParallelLimit(t *testing.T) {
	src := &fakeSource{delay: 20 * time.Millisecond}
	c := NewCoordinator(src, 2, nil, logger.NewTestLogger())

	res, err := c.Crawl(context.Background(), listing, 1, 6)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Crawled)
	assert.LessOrEqual(t, atomic.LoadInt32(&src.maxFlight), int32(2))
}
