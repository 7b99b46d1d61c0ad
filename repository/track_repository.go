package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gojam/model"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateKey is returned when an insert collides with a unique key.
// The catalog store treats it as "someone else created the row first".
var ErrDuplicateKey = errors.New("duplicate key")

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	GetTrackByShazamID(shazamID int64) (*model.Track, error)
	IncrementPopularity(trackID int64) error
	GetTracksByArtistShazamID(artistShazamID int64) ([]*model.Track, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	db *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

const trackColumns = `id, shazam_id, track_key, artist_shazam_id, title, band, cover_path, popularity, created_at, updated_at`

func scanTrack(row interface{ Scan(...interface{}) error }) (*model.Track, error) {
	track := &model.Track{}
	err := row.Scan(&track.ID, &track.ShazamID, &track.TrackKey, &track.ArtistShazamID,
		&track.Title, &track.Band, &track.CoverPath, &track.Popularity, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return track, nil
}

// CreateTrack adds a new track to the database. A unique-key collision on
// shazam_id is mapped to ErrDuplicateKey.
func (r *mysqlTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (shazam_id, track_key, artist_shazam_id, title, band, cover_path, popularity, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(track.ShazamID, track.TrackKey, track.ArtistShazamID, track.Title, track.Band, track.CoverPath, track.Popularity, now, now)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	return id, nil
}

// GetTrackByID retrieves a track by its local ID.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	track, err := scanTrack(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return track, nil
}

// GetTrackByShazamID retrieves a track by its external Shazam ID.
func (r *mysqlTrackRepository) GetTrackByShazamID(shazamID int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE shazam_id = ?`
	track, err := scanTrack(r.db.QueryRow(query, shazamID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by shazam ID %d: %w", shazamID, err)
	}
	return track, nil
}

// IncrementPopularity bumps the recognition counter by one, atomically in
// the database so concurrent recognitions never lose updates.
func (r *mysqlTrackRepository) IncrementPopularity(trackID int64) error {
	query := `UPDATE tracks SET popularity = popularity + 1, updated_at = ? WHERE id = ?`
	_, err := r.db.Exec(query, time.Now(), trackID)
	if err != nil {
		return fmt.Errorf("failed to increment popularity for track ID %d: %w", trackID, err)
	}
	return nil
}

// GetTracksByArtistShazamID retrieves all catalogued tracks attributed to an artist.
func (r *mysqlTrackRepository) GetTracksByArtistShazamID(artistShazamID int64) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE artist_shazam_id = ? ORDER BY popularity DESC`
	rows, err := r.db.Query(query, artistShazamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks for artist %d: %w", artistShazamID, err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in GetTracksByArtistShazamID: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetTracksByArtistShazamID: %w", err)
	}

	return tracks, nil
}
