package shazam

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gojam/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, 5*time.Second), server
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake-audio-bytes"), 0644))
	return path
}

func TestRecognizeMatch(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/recognize", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "fake-audio-bytes", string(body))

		io.WriteString(w, `{
			"matches": [{"id": "581370169"}],
			"track": {
				"key": "157666207",
				"title": "Way Down We Go",
				"subtitle": "KALEO",
				"hub": {"actions": [{"id": "1440831410"}]},
				"artists": [{"adamid": 821346724}],
				"share": {"image": "https://is5.mzstatic.com/image/cover.jpg"}
			}
		}`)
	}))
	defer server.Close()

	hit, err := client.Recognize(context.Background(), writeSample(t))
	require.NoError(t, err)

	// The match id wins over the hub action id.
	assert.Equal(t, int64(581370169), hit.ShazamID)
	assert.Equal(t, "157666207", hit.TrackKey)
	assert.Equal(t, "Way Down We Go", hit.Title)
	assert.Equal(t, "KALEO", hit.Band)
	assert.Equal(t, int64(821346724), hit.ArtistShazamID)
	assert.Equal(t, "https://is5.mzstatic.com/image/cover.jpg", hit.CoverURL)
}

func TestRecognizeNoMatch(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"matches": [], "track": {}}`)
	}))
	defer server.Close()

	_, err := client.Recognize(context.Background(), writeSample(t))
	assert.ErrorIs(t, err, ErrNotRecognized)
}

func TestRecognizeMatchWithoutStableID(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"matches": [{"id": "not-a-number"}],
			"track": {"title": "Mystery", "subtitle": "Nobody", "hub": {}, "artists": []}
		}`)
	}))
	defer server.Close()

	_, err := client.Recognize(context.Background(), writeSample(t))
	assert.ErrorIs(t, err, ErrNotRecognized)
}

func TestRecognizeServiceDown(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := client.Recognize(context.Background(), writeSample(t))
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	// Unreachable host maps the same way.
	client.SetBaseURL("http://127.0.0.1:1")
	_, err = client.Recognize(context.Background(), writeSample(t))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestChart(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charts/world", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "pop", r.URL.Query().Get("genre"))

		io.WriteString(w, `{"tracks": [
			{
				"key": "k1",
				"title": "Normal Track",
				"subtitle": "Some Band",
				"hub": {"actions": [{"id": "101"}]},
				"artists": [{"adamid": 5}],
				"share": {"image": "https://img.example.com/1.jpg"}
			},
			{
				"key": "k2",
				"title": "Ghost Track",
				"subtitle": "Unsigned",
				"hub": {"actions": []},
				"artists": [],
				"share": {}
			}
		]}`)
	}))
	defer server.Close()

	hits, err := client.Chart(context.Background(), "world", "pop", 100)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, int64(101), hits[0].ShazamID)
	assert.Equal(t, int64(5), hits[0].ArtistShazamID)
	assert.False(t, hits[0].Ghost())

	// No action id: ghost, rendered with the default cover.
	assert.True(t, hits[1].Ghost())
	assert.Equal(t, "Ghost Track", hits[1].Title)
	assert.Equal(t, model.DefaultCoverURL, hits[1].CoverURL)
	assert.Zero(t, hits[1].ArtistShazamID)
}

func TestRelated(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/related", r.URL.Path)
		assert.Equal(t, "157666207", r.URL.Query().Get("key"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "40", r.URL.Query().Get("offset"))

		io.WriteString(w, `{"tracks": [
			{"key": "k9", "title": "Similar", "subtitle": "Band", "hub": {"actions": [{"id": "909"}]}}
		]}`)
	}))
	defer server.Close()

	hits, err := client.Related(context.Background(), "157666207", 20, 40)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(909), hits[0].ShazamID)
}

func TestArtistInfo(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/artist/821346724", r.URL.Path)
		assert.Equal(t, "top-songs", r.URL.Query().Get("views"))

		io.WriteString(w, `{"data": [{
			"attributes": {
				"name": "KALEO",
				"genreNames": ["Alternative", "Rock"],
				"artwork": {"url": "https://img.example.com/{w}x{h}.jpg", "width": 800, "height": 600}
			},
			"views": {"top-songs": {"data": [
				{"id": "1440831410", "attributes": {"name": "Way Down We Go", "artwork": {"url": "https://img.example.com/t-{w}.jpg", "width": 400, "height": 400}}},
				{"id": "", "attributes": {"name": "Untitled", "artwork": {}}}
			]}}
		}]}`)
	}))
	defer server.Close()

	detail, err := client.ArtistInfo(context.Background(), 821346724)
	require.NoError(t, err)

	assert.Equal(t, int64(821346724), detail.ShazamID)
	assert.Equal(t, "KALEO", detail.Name)
	assert.Equal(t, "Alternative", detail.Genre)
	assert.Equal(t, "https://img.example.com/800x600.jpg", detail.CoverURL)

	require.Len(t, detail.TopTracks, 2)
	assert.Equal(t, int64(1440831410), detail.TopTracks[0].ShazamID)
	assert.Equal(t, "KALEO", detail.TopTracks[0].Band)
	assert.Equal(t, "https://img.example.com/t-400.jpg", detail.TopTracks[0].CoverURL)

	// No id, no artwork: ghost with the default cover.
	assert.True(t, detail.TopTracks[1].Ghost())
	assert.Equal(t, model.DefaultCoverURL, detail.TopTracks[1].CoverURL)
}

func TestArtistInfoNotFound(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": []}`)
	}))
	defer server.Close()

	_, err := client.ArtistInfo(context.Background(), 42)
	assert.Error(t, err)
}

func TestArtistInfoGenreFallback(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [{"attributes": {"name": "Mystery Act", "genreNames": [], "artwork": {}}, "views": {}}]}`)
	}))
	defer server.Close()

	detail, err := client.ArtistInfo(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", detail.Genre)
	assert.Equal(t, model.DefaultCoverURL, detail.CoverURL)
}

func TestValidCountryAndGenre(t *testing.T) {
	assert.True(t, ValidCountry(WorldChart))
	assert.True(t, ValidCountry("US"))
	assert.False(t, ValidCountry("ZZ"))

	assert.True(t, ValidGenre("US", "pop"))
	assert.True(t, ValidGenre("AT", ""), "no genre filter is always valid")
	assert.False(t, ValidGenre("AT", "pop"), "small markets serve no genre charts")
	assert.False(t, ValidGenre("US", "polka"))
}
