package model

import "time"

// Track is a catalogued track shared across all users. There is exactly one
// row per Shazam track ID; re-sightings from any ingestion path fold into it.
type Track struct {
	ID             int64     `json:"id"`
	ShazamID       int64     `json:"shazamId"`
	TrackKey       string    `json:"trackKey,omitempty"` // secondary lookup key for related-tracks queries
	ArtistShazamID int64     `json:"artistShazamId"`     // 0 when the service reported no artist
	Title          string    `json:"title"`
	Band           string    `json:"band"`
	CoverPath      string    `json:"coverPath"` // object name in cover storage, or the default cover
	Popularity     int64     `json:"popularity"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
