package shazam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"gojam/model"
)

// Related returns tracks similar to the track identified by trackKey.
func (c *Client) Related(ctx context.Context, trackKey string, limit, offset int) ([]model.TrackHit, error) {
	u := fmt.Sprintf("%s/v1/related?key=%s&limit=%d&offset=%d",
		c.baseURL, url.QueryEscape(trackKey), limit, offset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create related request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result trackListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode related response: %w", err)
	}

	hits := make([]model.TrackHit, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		hits = append(hits, t.normalize())
	}
	return hits, nil
}
