package assets

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gojam/logger"
	"gojam/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Category scopes generated object names so track, artist and user images
// live under separate prefixes.
type Category string

const (
	CategoryTrack  Category = "track"
	CategoryArtist Category = "artist"
	CategoryUser   Category = "user"
)

// Job describes one remote image to mirror into object storage. Jobs are
// ephemeral: they carry no reference back into the catalog and a failed job
// is simply dropped.
type Job struct {
	SourceURL  string
	ObjectName string
	Category   Category
}

// ObjectName generates an opaque object name under the category's prefix.
// Distinct from the default cover reference by construction.
func ObjectName(category Category) string {
	return fmt.Sprintf("%s/%s.jpg", category, uuid.NewString())
}

// Fetcher downloads cover images concurrently into object storage.
// Best-effort by contract: a failed download never propagates to the
// ingestion that enqueued it.
type Fetcher struct {
	httpClient *http.Client
	store      storage.ObjectStore
	limit      int           // max concurrent downloads per batch, 0 = unbounded
	timeout    time.Duration // per-job timeout
}

// NewFetcher creates a Fetcher over one shared HTTP client.
func NewFetcher(store storage.ObjectStore, limit int, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{},
		store:      store,
		limit:      limit,
		timeout:    timeout,
	}
}

// Enqueue schedules a batch and returns immediately, so a slow image host
// cannot inflate the latency of the request that produced the batch. The
// catalog rows referenced by the jobs are already committed by the time this
// is called.
func (f *Fetcher) Enqueue(jobs []Job) {
	if len(jobs) == 0 {
		return
	}
	go f.FetchBatch(context.Background(), jobs)
}

// FetchBatch runs all jobs concurrently, bounded by the configured limit, and
// returns after every job has resolved. Per-job failures are logged and
// swallowed; the returned count is the number of successful downloads.
func (f *Fetcher) FetchBatch(ctx context.Context, jobs []Job) int {
	g, ctx := errgroup.WithContext(ctx)
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}

	results := make(chan bool, len(jobs))
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := f.fetchOne(ctx, job); err != nil {
				logger.Warn("Cover download failed",
					logger.String("url", job.SourceURL),
					logger.String("object", job.ObjectName),
					logger.ErrorField(err))
				results <- false
				return nil // never cancel siblings
			}
			results <- true
			return nil
		})
	}
	g.Wait()
	close(results)

	fetched := 0
	for ok := range results {
		if ok {
			fetched++
		}
	}
	logger.Debug("Asset batch finished",
		logger.Int("jobs", len(jobs)),
		logger.Int("fetched", fetched))
	return fetched
}

func (f *Fetcher) fetchOne(ctx context.Context, job Job) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if err := f.store.Put(ctx, job.ObjectName, resp.Body, resp.ContentLength, contentType); err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}
