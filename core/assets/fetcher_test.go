package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore collects stored objects.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *memStore) Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = data
	m.types[objectName] = contentType
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func TestFetchBatchStoresAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprintf(w, "image-bytes-for%s", r.URL.Path)
	}))
	defer server.Close()

	store := newMemStore()
	f := NewFetcher(store, 4, time.Second)

	jobs := []Job{
		{SourceURL: server.URL + "/a.png", ObjectName: "track/a.jpg", Category: CategoryTrack},
		{SourceURL: server.URL + "/b.png", ObjectName: "track/b.jpg", Category: CategoryTrack},
		{SourceURL: server.URL + "/c.png", ObjectName: "artist/c.jpg", Category: CategoryArtist},
	}

	fetched := f.FetchBatch(context.Background(), jobs)
	assert.Equal(t, 3, fetched)
	assert.Equal(t, 3, store.count())
	assert.Equal(t, []byte("image-bytes-for/a.png"), store.objects["track/a.jpg"])
	assert.Equal(t, "image/png", store.types["track/a.jpg"])
}

func TestFetchBatchSwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	store := newMemStore()
	f := NewFetcher(store, 0, time.Second)

	jobs := []Job{
		{SourceURL: server.URL + "/fine.jpg", ObjectName: "track/fine.jpg", Category: CategoryTrack},
		{SourceURL: server.URL + "/missing.jpg", ObjectName: "track/missing.jpg", Category: CategoryTrack},
		{SourceURL: "http://127.0.0.1:1/unreachable.jpg", ObjectName: "track/unreachable.jpg", Category: CategoryTrack},
	}

	fetched := f.FetchBatch(context.Background(), jobs)
	assert.Equal(t, 1, fetched, "one good job, two failures")
	assert.Equal(t, 1, store.count())
	_, stored := store.objects["track/missing.jpg"]
	assert.False(t, stored)
}

func TestFetchBatchHonorsLimit(t *testing.T) {
	var inFlight, peak int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	f := NewFetcher(newMemStore(), 2, time.Second)

	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = Job{
			SourceURL:  fmt.Sprintf("%s/%d.jpg", server.URL, i),
			ObjectName: fmt.Sprintf("track/%d.jpg", i),
			Category:   CategoryTrack,
		}
	}

	fetched := f.FetchBatch(context.Background(), jobs)
	assert.Equal(t, 8, fetched)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestFetchBatchDefaultsContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress the Content-Type header entirely.
		w.Header()["Content-Type"] = nil
		w.Write([]byte{0xff, 0xd8})
	}))
	defer server.Close()

	store := newMemStore()
	f := NewFetcher(store, 1, time.Second)

	f.FetchBatch(context.Background(), []Job{
		{SourceURL: server.URL + "/x", ObjectName: "track/x.jpg", Category: CategoryTrack},
	})

	require.Equal(t, 1, store.count())
	assert.Equal(t, "image/jpeg", store.types["track/x.jpg"])
}

func TestEnqueueEmptyBatch(t *testing.T) {
	f := NewFetcher(newMemStore(), 1, time.Second)
	f.Enqueue(nil) // must not spawn or panic
}

func TestObjectName(t *testing.T) {
	a := ObjectName(CategoryTrack)
	b := ObjectName(CategoryTrack)
	assert.True(t, strings.HasPrefix(a, "track/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(ObjectName(CategoryArtist), "artist/"))
}
