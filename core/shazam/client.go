package shazam

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"gojam/model"
)

// ErrNotRecognized is returned when the service found no match for a sample.
// This is an expected outcome, not a transport failure.
var ErrNotRecognized = errors.New("shazam: sample not recognized")

// ErrServiceUnavailable is returned on transport errors and 5xx responses.
// Callers may retry or degrade to locally cached data.
var ErrServiceUnavailable = errors.New("shazam: service unavailable")

// Client talks to a Shazam-compatible recognition API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBaseURL overrides the API base URL.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// do executes the request and maps transport failures and 5xx responses onto
// ErrServiceUnavailable. The caller owns the response body on success.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("shazam: unexpected status %d: %s", resp.StatusCode, body)
	}
	return resp, nil
}

// rawTrack mirrors one track entry as the service returns it. Keys the
// service may omit (hub actions, artists, share image) are normalized exactly
// once, in normalize; downstream code never re-checks raw shape.
type rawTrack struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Hub      struct {
		Actions []struct {
			ID string `json:"id"`
		} `json:"actions"`
	} `json:"hub"`
	Artists []struct {
		AdamID int64 `json:"adamid"`
	} `json:"artists"`
	Share struct {
		Image string `json:"image"`
	} `json:"share"`
}

// normalize flattens a raw entry into a TrackHit. Entries without an action
// id come out with ShazamID 0, i.e. ghosts.
func (t rawTrack) normalize() model.TrackHit {
	hit := model.TrackHit{
		TrackKey: t.Key,
		Title:    t.Title,
		Band:     t.Subtitle,
		CoverURL: model.DefaultCoverURL,
	}
	if len(t.Hub.Actions) > 0 {
		if id, err := strconv.ParseInt(t.Hub.Actions[0].ID, 10, 64); err == nil {
			hit.ShazamID = id
		}
	}
	if len(t.Artists) > 0 {
		hit.ArtistShazamID = t.Artists[0].AdamID
	}
	if t.Share.Image != "" {
		hit.CoverURL = t.Share.Image
	}
	return hit
}

// rawArtwork carries a templated image URL with {w}/{h} placeholders.
type rawArtwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
