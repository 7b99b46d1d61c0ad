package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gojam/model"

	"github.com/go-sql-driver/mysql"
)

// ArtistRepository defines the interface for artist data operations.
type ArtistRepository interface {
	CreateArtist(artist *model.Artist) (int64, error)
	GetArtistByID(id int64) (*model.Artist, error)
	GetArtistByShazamID(shazamID int64) (*model.Artist, error)
	GetArtistStats(id int64) (*model.ArtistStats, error)
	MostPopularArtist() (*model.ArtistStats, error)
}

// mysqlArtistRepository implements ArtistRepository for MySQL.
type mysqlArtistRepository struct {
	db *sql.DB
}

// NewMySQLArtistRepository creates a new instance of mysqlArtistRepository.
func NewMySQLArtistRepository(db *sql.DB) ArtistRepository {
	return &mysqlArtistRepository{db: db}
}

const artistColumns = `id, shazam_id, name, genre, cover_path, created_at, updated_at`

func scanArtist(row interface{ Scan(...interface{}) error }) (*model.Artist, error) {
	artist := &model.Artist{}
	err := row.Scan(&artist.ID, &artist.ShazamID, &artist.Name, &artist.Genre,
		&artist.CoverPath, &artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return artist, nil
}

// CreateArtist adds a new artist to the database. A unique-key collision on
// shazam_id is mapped to ErrDuplicateKey.
func (r *mysqlArtistRepository) CreateArtist(artist *model.Artist) (int64, error) {
	query := `INSERT INTO artists (shazam_id, name, genre, cover_path, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateArtist: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(artist.ShazamID, artist.Name, artist.Genre, artist.CoverPath, now, now)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("failed to execute CreateArtist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateArtist: %w", err)
	}
	return id, nil
}

// GetArtistByID retrieves an artist by their local ID.
func (r *mysqlArtistRepository) GetArtistByID(id int64) (*model.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ?`
	artist, err := scanArtist(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Artist not found
		}
		return nil, fmt.Errorf("failed to scan artist by ID %d: %w", id, err)
	}
	return artist, nil
}

// GetArtistByShazamID retrieves an artist by their external Shazam ID.
func (r *mysqlArtistRepository) GetArtistByShazamID(shazamID int64) (*model.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE shazam_id = ?`
	artist, err := scanArtist(r.db.QueryRow(query, shazamID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Artist not found
		}
		return nil, fmt.Errorf("failed to scan artist by shazam ID %d: %w", shazamID, err)
	}
	return artist, nil
}

const artistStatsQuery = `
	SELECT a.id, a.shazam_id, a.name, a.genre, a.cover_path, a.created_at, a.updated_at,
	       COALESCE(SUM(t.popularity), 0) AS recognized,
	       COUNT(t.id) AS tracks_on_platform
	FROM artists a
	LEFT JOIN tracks t ON t.artist_shazam_id = a.shazam_id`

func scanArtistStats(row *sql.Row) (*model.ArtistStats, error) {
	stats := &model.ArtistStats{}
	a := &stats.Artist
	err := row.Scan(&a.ID, &a.ShazamID, &a.Name, &a.Genre, &a.CoverPath, &a.CreatedAt, &a.UpdatedAt,
		&stats.Recognized, &stats.TracksOnPlatform)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GetArtistStats returns the artist together with the aggregate recognition
// count and the number of their tracks on the platform.
func (r *mysqlArtistRepository) GetArtistStats(id int64) (*model.ArtistStats, error) {
	query := artistStatsQuery + ` WHERE a.id = ? GROUP BY a.id`
	stats, err := scanArtistStats(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan artist stats for ID %d: %w", id, err)
	}
	return stats, nil
}

// MostPopularArtist returns the artist whose tracks have accumulated the most
// recognitions. Artists with shazam_id 0 (unknown attribution) are excluded;
// counting them would fold every unattributed track into one fake artist.
func (r *mysqlArtistRepository) MostPopularArtist() (*model.ArtistStats, error) {
	query := artistStatsQuery + `
	WHERE a.shazam_id <> 0
	GROUP BY a.id
	ORDER BY recognized DESC
	LIMIT 1`
	stats, err := scanArtistStats(r.db.QueryRow(query))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Empty catalog
		}
		return nil, fmt.Errorf("failed to scan most popular artist: %w", err)
	}
	return stats, nil
}
