package model

// DefaultCoverURL is the sentinel used wherever the recognition service did
// not supply a cover image. It is never nil/absent, so downstream code only
// compares against this one value, and it is distinct from every generated
// object name.
const DefaultCoverURL = "static/img/unknown_song.png"

// TrackHit is a normalized track record returned by the recognition service.
// The raw API shapes (nested hubs, optional keys) are flattened exactly once
// at the client boundary; a zero ShazamID marks a ghost entry that can be
// rendered but never persisted.
type TrackHit struct {
	ShazamID       int64  `json:"shazamId"`
	TrackKey       string `json:"trackKey,omitempty"`
	ArtistShazamID int64  `json:"artistShazamId"`
	Title          string `json:"title"`
	Band           string `json:"band"`
	CoverURL       string `json:"coverUrl"` // DefaultCoverURL when the service has no image
}

// Ghost reports whether the hit lacks a stable external identifier.
func (h TrackHit) Ghost() bool {
	return h.ShazamID == 0
}

// ArtistDetail is the normalized artist record returned by the recognition
// service, including the artist's top tracks.
type ArtistDetail struct {
	ShazamID  int64      `json:"shazamId"`
	Name      string     `json:"name"`
	Genre     string     `json:"genre"`
	CoverURL  string     `json:"coverUrl"`
	TopTracks []TrackHit `json:"topTracks"`
}

// ChartEntry pairs an external hit with its catalog-local ID. LocalID is 0
// for ghost entries, which are displayable but not retrievable later.
type ChartEntry struct {
	LocalID int64    `json:"localId"`
	Hit     TrackHit `json:"hit"`
}
