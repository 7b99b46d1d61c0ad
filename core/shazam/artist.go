package shazam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gojam/model"
)

// artistResponse mirrors the artist-about payload: a data array whose first
// element carries the attributes and the top-songs view.
type artistResponse struct {
	Data []struct {
		Attributes struct {
			Name       string     `json:"name"`
			GenreNames []string   `json:"genreNames"`
			Artwork    rawArtwork `json:"artwork"`
		} `json:"attributes"`
		Views struct {
			TopSongs struct {
				Data []struct {
					ID         string `json:"id"`
					Attributes struct {
						Name    string     `json:"name"`
						Artwork rawArtwork `json:"artwork"`
					} `json:"attributes"`
				} `json:"data"`
			} `json:"top-songs"`
		} `json:"views"`
	} `json:"data"`
}

// artworkURL resolves the {w}/{h} placeholders in a templated artwork URL.
func artworkURL(a rawArtwork) string {
	if a.URL == "" {
		return model.DefaultCoverURL
	}
	u := strings.ReplaceAll(a.URL, "{w}", strconv.Itoa(a.Width))
	return strings.ReplaceAll(u, "{h}", strconv.Itoa(a.Height))
}

// ArtistInfo returns the artist record plus their top tracks. Top tracks have
// the artist's name as their band and are attributed to the artist's id by
// the ingestion layer.
func (c *Client) ArtistInfo(ctx context.Context, artistShazamID int64) (*model.ArtistDetail, error) {
	u := fmt.Sprintf("%s/v1/artist/%d?views=top-songs", c.baseURL, artistShazamID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create artist request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result artistResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode artist response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("shazam: artist %d not found", artistShazamID)
	}

	attrs := result.Data[0].Attributes
	detail := &model.ArtistDetail{
		ShazamID: artistShazamID,
		Name:     attrs.Name,
		Genre:    "Unknown",
		CoverURL: artworkURL(attrs.Artwork),
	}
	if len(attrs.GenreNames) > 0 {
		detail.Genre = attrs.GenreNames[0]
	}

	for _, song := range result.Data[0].Views.TopSongs.Data {
		hit := model.TrackHit{
			Title:    song.Attributes.Name,
			Band:     attrs.Name,
			CoverURL: artworkURL(song.Attributes.Artwork),
		}
		if id, err := strconv.ParseInt(song.ID, 10, 64); err == nil {
			hit.ShazamID = id
		}
		detail.TopTracks = append(detail.TopTracks, hit)
	}
	return detail, nil
}
