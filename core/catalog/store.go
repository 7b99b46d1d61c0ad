package catalog

import (
	"fmt"
	"sync"

	"gojam/logger"
	"gojam/model"
	"gojam/repository"
)

// Store is the deduplicated track/artist catalog. All catalog mutation goes
// through UpsertTrack/UpsertArtist; no caller writes a row directly.
//
// Concurrency: upserts for the same external id serialize on a per-id mutex,
// so exactly one row is created and every concurrent caller sees it. The
// UNIQUE keys in the schema back this up across processes: an insert that
// loses the race comes back as ErrDuplicateKey and is retried as a lookup.
type Store struct {
	tracks  repository.TrackRepository
	artists repository.ArtistRepository

	mu          sync.Mutex
	trackLocks  map[int64]*sync.Mutex
	artistLocks map[int64]*sync.Mutex
}

// NewStore creates a Store over the given repositories.
func NewStore(tracks repository.TrackRepository, artists repository.ArtistRepository) *Store {
	return &Store{
		tracks:      tracks,
		artists:     artists,
		trackLocks:  make(map[int64]*sync.Mutex),
		artistLocks: make(map[int64]*sync.Mutex),
	}
}

// lockFor returns the mutex for an external id, creating it on first use.
// Locks are never reclaimed; the map is bounded by the catalog size.
func lockFor(mu *sync.Mutex, locks map[int64]*sync.Mutex, id int64) *sync.Mutex {
	mu.Lock()
	defer mu.Unlock()
	l, ok := locks[id]
	if !ok {
		l = &sync.Mutex{}
		locks[id] = l
	}
	return l
}

// UpsertTrack folds an external hit into the catalog and returns the local
// track ID plus whether a new row was created.
//
//   - Ghost hits (no external id) are never persisted: localID 0, created false.
//   - An existing row is returned as-is; its popularity is incremented only
//     when the upsert represents a recognition event. Re-upserting the same id
//     from chart/related/artist paths is therefore idempotent.
//   - A new row seeds popularity 1 on the recognize path (creating it is
//     itself one recognition) and 0 otherwise.
//
// coverRef is the cover reference the new row is created with: the object
// name a pending asset job will fill, or the default cover. It is fixed at
// creation time; asset fetch failure never rewrites it.
func (s *Store) UpsertTrack(hit model.TrackHit, coverRef string, recognition bool) (int64, bool, error) {
	if hit.Ghost() {
		return 0, false, nil
	}

	lock := lockFor(&s.mu, s.trackLocks, hit.ShazamID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.tracks.GetTrackByShazamID(hit.ShazamID)
	if err != nil {
		return 0, false, fmt.Errorf("track lookup failed for shazam ID %d: %w", hit.ShazamID, err)
	}
	if existing != nil {
		if recognition {
			if err := s.tracks.IncrementPopularity(existing.ID); err != nil {
				return 0, false, err
			}
		}
		return existing.ID, false, nil
	}

	track := &model.Track{
		ShazamID:       hit.ShazamID,
		TrackKey:       hit.TrackKey,
		ArtistShazamID: hit.ArtistShazamID,
		Title:          hit.Title,
		Band:           hit.Band,
		CoverPath:      coverRef,
	}
	if recognition {
		track.Popularity = 1
	}

	id, err := s.tracks.CreateTrack(track)
	if err == repository.ErrDuplicateKey {
		// Lost an insert race against another process; fold into the winner.
		winner, lookupErr := s.tracks.GetTrackByShazamID(hit.ShazamID)
		if lookupErr != nil {
			return 0, false, fmt.Errorf("post-race track lookup failed for shazam ID %d: %w", hit.ShazamID, lookupErr)
		}
		if winner == nil {
			return 0, false, fmt.Errorf("track %d vanished after duplicate-key insert", hit.ShazamID)
		}
		if recognition {
			if err := s.tracks.IncrementPopularity(winner.ID); err != nil {
				return 0, false, err
			}
		}
		return winner.ID, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("track insert failed for shazam ID %d: %w", hit.ShazamID, err)
	}

	logger.Info("Catalogued new track",
		logger.Int64("trackId", id),
		logger.Int64("shazamId", hit.ShazamID),
		logger.String("title", hit.Title))
	return id, true, nil
}

// UpsertArtist mirrors UpsertTrack for artists, without a popularity counter.
func (s *Store) UpsertArtist(detail model.ArtistDetail, coverRef string) (int64, bool, error) {
	if detail.ShazamID == 0 {
		return 0, false, nil
	}

	lock := lockFor(&s.mu, s.artistLocks, detail.ShazamID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.artists.GetArtistByShazamID(detail.ShazamID)
	if err != nil {
		return 0, false, fmt.Errorf("artist lookup failed for shazam ID %d: %w", detail.ShazamID, err)
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	artist := &model.Artist{
		ShazamID:  detail.ShazamID,
		Name:      detail.Name,
		Genre:     detail.Genre,
		CoverPath: coverRef,
	}

	id, err := s.artists.CreateArtist(artist)
	if err == repository.ErrDuplicateKey {
		winner, lookupErr := s.artists.GetArtistByShazamID(detail.ShazamID)
		if lookupErr != nil {
			return 0, false, fmt.Errorf("post-race artist lookup failed for shazam ID %d: %w", detail.ShazamID, lookupErr)
		}
		if winner == nil {
			return 0, false, fmt.Errorf("artist %d vanished after duplicate-key insert", detail.ShazamID)
		}
		return winner.ID, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("artist insert failed for shazam ID %d: %w", detail.ShazamID, err)
	}

	logger.Info("Catalogued new artist",
		logger.Int64("artistId", id),
		logger.Int64("shazamId", detail.ShazamID),
		logger.String("name", detail.Name))
	return id, true, nil
}
