package model

import "time"

// Artist is a catalogued artist, one row per Shazam artist ID.
type Artist struct {
	ID        int64     `json:"id"`
	ShazamID  int64     `json:"shazamId"`
	Name      string    `json:"name"`
	Genre     string    `json:"genre"`
	CoverPath string    `json:"coverPath"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ArtistStats is the aggregate view served by the artist JSON API.
type ArtistStats struct {
	Artist           Artist `json:"artist"`
	Recognized       int64  `json:"recognized"` // sum of popularity over the artist's tracks
	TracksOnPlatform int64  `json:"tracksOnPlatform"`
}
