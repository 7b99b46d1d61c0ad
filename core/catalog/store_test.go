package catalog

import (
	"sync"
	"testing"

	"gojam/model"
	"gojam/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrackRepo is an in-memory TrackRepository. It enforces the same unique
// key on shazam_id the real schema does.
type fakeTrackRepo struct {
	mu          sync.Mutex
	nextID      int64
	byID        map[int64]*model.Track
	byShazam    map[int64]*model.Track
	createCalls int
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{
		byID:     make(map[int64]*model.Track),
		byShazam: make(map[int64]*model.Track),
	}
}

func (f *fakeTrackRepo) CreateTrack(track *model.Track) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if _, exists := f.byShazam[track.ShazamID]; exists {
		return 0, repository.ErrDuplicateKey
	}
	f.nextID++
	stored := *track
	stored.ID = f.nextID
	f.byID[stored.ID] = &stored
	f.byShazam[stored.ShazamID] = &stored
	return stored.ID, nil
}

func (f *fakeTrackRepo) GetTrackByID(id int64) (*model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	track, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *track
	return &copied, nil
}

func (f *fakeTrackRepo) GetTrackByShazamID(shazamID int64) (*model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	track, ok := f.byShazam[shazamID]
	if !ok {
		return nil, nil
	}
	copied := *track
	return &copied, nil
}

func (f *fakeTrackRepo) IncrementPopularity(trackID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if track, ok := f.byID[trackID]; ok {
		track.Popularity++
	}
	return nil
}

func (f *fakeTrackRepo) GetTracksByArtistShazamID(artistShazamID int64) ([]*model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Track
	for _, track := range f.byID {
		if track.ArtistShazamID == artistShazamID {
			copied := *track
			out = append(out, &copied)
		}
	}
	return out, nil
}

// fakeArtistRepo is an in-memory ArtistRepository.
type fakeArtistRepo struct {
	mu          sync.Mutex
	nextID      int64
	byID        map[int64]*model.Artist
	byShazam    map[int64]*model.Artist
	createCalls int
}

func newFakeArtistRepo() *fakeArtistRepo {
	return &fakeArtistRepo{
		byID:     make(map[int64]*model.Artist),
		byShazam: make(map[int64]*model.Artist),
	}
}

func (f *fakeArtistRepo) CreateArtist(artist *model.Artist) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if _, exists := f.byShazam[artist.ShazamID]; exists {
		return 0, repository.ErrDuplicateKey
	}
	f.nextID++
	stored := *artist
	stored.ID = f.nextID
	f.byID[stored.ID] = &stored
	f.byShazam[stored.ShazamID] = &stored
	return stored.ID, nil
}

func (f *fakeArtistRepo) GetArtistByID(id int64) (*model.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	artist, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *artist
	return &copied, nil
}

func (f *fakeArtistRepo) GetArtistByShazamID(shazamID int64) (*model.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	artist, ok := f.byShazam[shazamID]
	if !ok {
		return nil, nil
	}
	copied := *artist
	return &copied, nil
}

func (f *fakeArtistRepo) GetArtistStats(id int64) (*model.ArtistStats, error) {
	artist, err := f.GetArtistByID(id)
	if err != nil || artist == nil {
		return nil, err
	}
	return &model.ArtistStats{Artist: *artist}, nil
}

func (f *fakeArtistRepo) MostPopularArtist() (*model.ArtistStats, error) {
	return nil, nil
}

// racingTrackRepo makes the first insert collide as if another process had
// created the row between lookup and insert.
type racingTrackRepo struct {
	*fakeTrackRepo
	raced bool
}

func (r *racingTrackRepo) CreateTrack(track *model.Track) (int64, error) {
	if !r.raced {
		r.raced = true
		winner := *track
		winner.Popularity = 0
		if _, err := r.fakeTrackRepo.CreateTrack(&winner); err != nil {
			return 0, err
		}
		return 0, repository.ErrDuplicateKey
	}
	return r.fakeTrackRepo.CreateTrack(track)
}

func testHit(shazamID int64) model.TrackHit {
	return model.TrackHit{
		ShazamID:       shazamID,
		TrackKey:       "key-123",
		ArtistShazamID: 77,
		Title:          "Bohemian Rhapsody",
		Band:           "Queen",
		CoverURL:       "https://images.example.com/cover.jpg",
	}
}

func TestUpsertTrackCreatesThenFolds(t *testing.T) {
	tracks := newFakeTrackRepo()
	store := NewStore(tracks, newFakeArtistRepo())

	id, created, err := store.UpsertTrack(testHit(1001), "track/abc.jpg", true)
	require.NoError(t, err)
	require.True(t, created)
	require.NotZero(t, id)

	row, err := tracks.GetTrackByID(id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(1001), row.ShazamID)
	assert.Equal(t, "track/abc.jpg", row.CoverPath)
	assert.Equal(t, int64(1), row.Popularity, "creation on the recognize path is itself one recognition")

	// Same external id again: no second row, popularity moves once more.
	id2, created2, err := store.UpsertTrack(testHit(1001), "track/other.jpg", true)
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, id, id2)

	row, _ = tracks.GetTrackByID(id)
	assert.Equal(t, int64(2), row.Popularity)
	assert.Equal(t, "track/abc.jpg", row.CoverPath, "cover reference is fixed at creation")
	assert.Equal(t, 1, tracks.createCalls)
}

func TestUpsertTrackChartPathIsIdempotent(t *testing.T) {
	tracks := newFakeTrackRepo()
	store := NewStore(tracks, newFakeArtistRepo())

	id, created, err := store.UpsertTrack(testHit(2002), "track/x.jpg", false)
	require.NoError(t, err)
	require.True(t, created)

	row, _ := tracks.GetTrackByID(id)
	assert.Equal(t, int64(0), row.Popularity, "chart sightings are not recognitions")

	for i := 0; i < 3; i++ {
		_, created, err := store.UpsertTrack(testHit(2002), "track/y.jpg", false)
		require.NoError(t, err)
		assert.False(t, created)
	}
	row, _ = tracks.GetTrackByID(id)
	assert.Equal(t, int64(0), row.Popularity)
}

func TestUpsertTrackGhostNeverPersisted(t *testing.T) {
	tracks := newFakeTrackRepo()
	store := NewStore(tracks, newFakeArtistRepo())

	hit := testHit(0)
	id, created, err := store.UpsertTrack(hit, "track/ghost.jpg", true)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.False(t, created)
	assert.Zero(t, tracks.createCalls)
}

func TestUpsertTrackLosesInsertRace(t *testing.T) {
	inner := newFakeTrackRepo()
	tracks := &racingTrackRepo{fakeTrackRepo: inner}
	store := NewStore(tracks, newFakeArtistRepo())

	id, created, err := store.UpsertTrack(testHit(3003), "track/a.jpg", true)
	require.NoError(t, err)
	assert.False(t, created, "losing the race means someone else created the row")
	require.NotZero(t, id)

	row, _ := inner.GetTrackByID(id)
	require.NotNil(t, row)
	assert.Equal(t, int64(1), row.Popularity, "the recognition still counts against the winner")
}

func TestUpsertTrackConcurrentSameID(t *testing.T) {
	tracks := newFakeTrackRepo()
	store := NewStore(tracks, newFakeArtistRepo())

	const workers = 50
	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ids[n], _, errs[n] = store.UpsertTrack(testHit(4004), "track/c.jpg", true)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	first := ids[0]
	for _, id := range ids {
		assert.Equal(t, first, id, "every concurrent caller must see the same row")
	}
	assert.Equal(t, 1, tracks.createCalls)

	row, _ := tracks.GetTrackByID(first)
	assert.Equal(t, int64(workers), row.Popularity)
}

func TestUpsertArtist(t *testing.T) {
	artists := newFakeArtistRepo()
	store := NewStore(newFakeTrackRepo(), artists)

	detail := model.ArtistDetail{ShazamID: 77, Name: "Queen", Genre: "Rock"}

	id, created, err := store.UpsertArtist(detail, "artist/q.jpg")
	require.NoError(t, err)
	require.True(t, created)

	id2, created2, err := store.UpsertArtist(detail, "artist/q2.jpg")
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, id, id2)
	assert.Equal(t, 1, artists.createCalls)

	row, _ := artists.GetArtistByID(id)
	assert.Equal(t, "artist/q.jpg", row.CoverPath)

	// No external id, nothing stored.
	ghostID, ghostCreated, err := store.UpsertArtist(model.ArtistDetail{Name: "Unknown Artist"}, "artist/g.jpg")
	require.NoError(t, err)
	assert.Zero(t, ghostID)
	assert.False(t, ghostCreated)
}
