package catalog

import (
	"context"
	"errors"

	"gojam/core/assets"
	"gojam/core/shazam"
	"gojam/logger"
	"gojam/model"
)

// CatalogClient is the external recognition service as the pipeline sees it.
// *shazam.Client satisfies it; tests substitute a stub.
type CatalogClient interface {
	Recognize(ctx context.Context, samplePath string) (*model.TrackHit, error)
	Chart(ctx context.Context, country, genre string, limit int) ([]model.TrackHit, error)
	Related(ctx context.Context, trackKey string, limit, offset int) ([]model.TrackHit, error)
	ArtistInfo(ctx context.Context, artistShazamID int64) (*model.ArtistDetail, error)
}

// AssetEnqueuer schedules cover downloads after catalog commits.
type AssetEnqueuer interface {
	Enqueue(jobs []assets.Job)
}

// Recorder reconciles a recognition event into the user's library.
type Recorder interface {
	Record(ctx context.Context, userID, trackID int64) (bool, error)
}

// ChartCache holds recently served chart pages so a service outage degrades
// to stale data instead of an error page.
type ChartCache interface {
	Get(ctx context.Context, country, genre string) ([]model.ChartEntry, bool)
	Set(ctx context.Context, country, genre string, entries []model.ChartEntry)
}

// Notifier is told about every newly catalogued track (live feed).
type Notifier interface {
	TrackCatalogued(localID int64, hit model.TrackHit)
}

// Pipeline orchestrates external lookups into catalog upserts, asset fetch
// batches and library reconciliation. One instance is shared across requests.
type Pipeline struct {
	client     CatalogClient
	store      *Store
	fetcher    AssetEnqueuer
	library    Recorder   // optional
	chartCache ChartCache // optional
	notifier   Notifier   // optional
	chartLimit int
}

// NewPipeline creates a Pipeline. library and chartCache may be nil.
func NewPipeline(client CatalogClient, store *Store, fetcher AssetEnqueuer, library Recorder, chartCache ChartCache, chartLimit int) *Pipeline {
	return &Pipeline{
		client:     client,
		store:      store,
		fetcher:    fetcher,
		library:    library,
		chartCache: chartCache,
		chartLimit: chartLimit,
	}
}

// SetNotifier wires the live feed. Called once during server startup.
func (p *Pipeline) SetNotifier(n Notifier) {
	p.notifier = n
}

// RecognitionResult is what a successful recognition ingestion returns.
type RecognitionResult struct {
	TrackID    int64          `json:"trackId"`
	Hit        model.TrackHit `json:"hit"`
	NewForUser bool           `json:"newForUser"`
}

// upsertHit folds one hit into the catalog, deciding the cover reference the
// row is created with and producing the matching download job when a new row
// actually needs one.
func (p *Pipeline) upsertHit(hit model.TrackHit, recognition bool) (int64, *assets.Job, error) {
	coverRef := model.DefaultCoverURL
	var job *assets.Job
	if hit.CoverURL != model.DefaultCoverURL {
		name := assets.ObjectName(assets.CategoryTrack)
		coverRef = name
		job = &assets.Job{SourceURL: hit.CoverURL, ObjectName: name, Category: assets.CategoryTrack}
	}

	id, created, err := p.store.UpsertTrack(hit, coverRef, recognition)
	if err != nil {
		return 0, nil, err
	}
	if !created {
		// Existing row keeps its cover; the speculative name is unused.
		return id, nil, nil
	}
	if p.notifier != nil {
		p.notifier.TrackCatalogued(id, hit)
	}
	return id, job, nil
}

// upsertHits runs upsertHit over a hit list in service order, collecting the
// asset jobs for rows that were created.
func (p *Pipeline) upsertHits(hits []model.TrackHit, recognition bool) ([]model.ChartEntry, []assets.Job, error) {
	entries := make([]model.ChartEntry, 0, len(hits))
	var jobs []assets.Job
	for _, hit := range hits {
		id, job, err := p.upsertHit(hit, recognition)
		if err != nil {
			return nil, nil, err
		}
		if job != nil {
			jobs = append(jobs, *job)
		}
		entries = append(entries, model.ChartEntry{LocalID: id, Hit: hit})
	}
	return entries, jobs, nil
}

// IngestRecognition identifies the sample at samplePath, folds the match into
// the catalog and, when a user is present (userID != 0), records the event in
// their library. Returns shazam.ErrNotRecognized untouched when the service
// found no match; no catalog row is created in that case.
func (p *Pipeline) IngestRecognition(ctx context.Context, userID int64, samplePath string) (*RecognitionResult, error) {
	hit, err := p.client.Recognize(ctx, samplePath)
	if err != nil {
		return nil, err
	}

	id, job, err := p.upsertHit(*hit, true)
	if err != nil {
		return nil, err
	}
	if job != nil {
		// The track row is committed; the cover arrives whenever it arrives.
		p.fetcher.Enqueue([]assets.Job{*job})
	}

	result := &RecognitionResult{TrackID: id, Hit: *hit}
	if userID != 0 && p.library != nil {
		isNew, err := p.library.Record(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		result.NewForUser = isNew
	}
	return result, nil
}

// IngestChart fetches the chart for a country (and optional genre), folds the
// persistable entries into the catalog and returns all of them in service
// order, ghosts included with LocalID 0. When the service is unavailable the
// last cached page is served instead.
func (p *Pipeline) IngestChart(ctx context.Context, country, genre string) ([]model.ChartEntry, error) {
	hits, err := p.client.Chart(ctx, country, genre, p.chartLimit)
	if err != nil {
		if errors.Is(err, shazam.ErrServiceUnavailable) && p.chartCache != nil {
			if entries, ok := p.chartCache.Get(ctx, country, genre); ok {
				logger.Warn("Chart service unavailable, serving cached chart",
					logger.String("country", country),
					logger.String("genre", genre))
				return entries, nil
			}
		}
		return nil, err
	}

	entries, jobs, err := p.upsertHits(hits, false)
	if err != nil {
		return nil, err
	}
	p.fetcher.Enqueue(jobs)

	if p.chartCache != nil {
		p.chartCache.Set(ctx, country, genre, entries)
	}
	return entries, nil
}

// IngestRelated fetches tracks similar to trackKey and folds them into the
// catalog the same way a chart page is.
func (p *Pipeline) IngestRelated(ctx context.Context, trackKey string, limit, offset int) ([]model.ChartEntry, error) {
	hits, err := p.client.Related(ctx, trackKey, limit, offset)
	if err != nil {
		return nil, err
	}

	entries, jobs, err := p.upsertHits(hits, false)
	if err != nil {
		return nil, err
	}
	p.fetcher.Enqueue(jobs)
	return entries, nil
}

// ArtistResult is what artist ingestion returns.
type ArtistResult struct {
	ArtistID  int64              `json:"artistId"`
	Detail    model.ArtistDetail `json:"detail"`
	TopTracks []model.ChartEntry `json:"topTracks"`
}

// IngestArtist fetches the artist record, folds it and the artist's top
// tracks into the catalog, attributing each top track to the artist.
func (p *Pipeline) IngestArtist(ctx context.Context, artistShazamID int64) (*ArtistResult, error) {
	detail, err := p.client.ArtistInfo(ctx, artistShazamID)
	if err != nil {
		return nil, err
	}

	coverRef := model.DefaultCoverURL
	var jobs []assets.Job
	if detail.CoverURL != model.DefaultCoverURL {
		name := assets.ObjectName(assets.CategoryArtist)
		coverRef = name
		jobs = append(jobs, assets.Job{SourceURL: detail.CoverURL, ObjectName: name, Category: assets.CategoryArtist})
	}

	artistID, created, err := p.store.UpsertArtist(*detail, coverRef)
	if err != nil {
		return nil, err
	}
	if !created {
		jobs = jobs[:0]
	}

	hits := make([]model.TrackHit, 0, len(detail.TopTracks))
	for _, hit := range detail.TopTracks {
		hit.ArtistShazamID = detail.ShazamID
		hits = append(hits, hit)
	}
	entries, trackJobs, err := p.upsertHits(hits, false)
	if err != nil {
		return nil, err
	}
	jobs = append(jobs, trackJobs...)
	p.fetcher.Enqueue(jobs)

	return &ArtistResult{ArtistID: artistID, Detail: *detail, TopTracks: entries}, nil
}
