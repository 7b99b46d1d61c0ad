package shazam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"gojam/model"
)

// WorldChart is the country code for the global chart.
const WorldChart = "world"

type trackListResponse struct {
	Tracks []rawTrack `json:"tracks"`
}

// Chart returns the top tracks for a country, optionally filtered by genre.
// Entries without a stable id are returned as ghosts; the caller decides what
// to persist.
func (c *Client) Chart(ctx context.Context, country, genre string, limit int) ([]model.TrackHit, error) {
	u := fmt.Sprintf("%s/v1/charts/%s?limit=%d", c.baseURL, url.PathEscape(country), limit)
	if genre != "" {
		u += "&genre=" + url.QueryEscape(genre)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result trackListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	hits := make([]model.TrackHit, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		hits = append(hits, t.normalize())
	}
	return hits, nil
}
