package shazam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"gojam/logger"
	"gojam/model"
)

// recognizeResponse is the match result for an uploaded sample. An empty
// matches list means the service could not identify the sample.
type recognizeResponse struct {
	Matches []struct {
		ID string `json:"id"`
	} `json:"matches"`
	Track rawTrack `json:"track"`
}

// Recognize uploads the audio sample at samplePath and returns the matched
// track. Returns ErrNotRecognized when the service reports no match.
func (c *Client) Recognize(ctx context.Context, samplePath string) (*model.TrackHit, error) {
	f, err := os.Open(samplePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample %s: %w", samplePath, err)
	}
	defer f.Close()

	url := fmt.Sprintf("%s/v1/recognize", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode recognize response: %w", err)
	}

	if len(result.Matches) == 0 {
		logger.Debug("No match for sample", logger.String("sample", samplePath))
		return nil, ErrNotRecognized
	}

	hit := result.Track.normalize()
	// The track id of the match itself is authoritative over the hub action.
	if id, err := strconv.ParseInt(result.Matches[0].ID, 10, 64); err == nil && id != 0 {
		hit.ShazamID = id
	}
	if hit.ShazamID == 0 {
		// A "match" without a stable id cannot be catalogued.
		return nil, ErrNotRecognized
	}
	return &hit, nil
}
