package repository

import (
	"errors"
	"fmt"
	"time"

	"gojam/model"

	"gorm.io/gorm"
)

// RecognitionRepository defines the interface for per-user recognition
// history operations.
type RecognitionRepository interface {
	FindByUserAndTrack(userID, trackID int64) (*model.Recognition, error)
	FindByID(id int64) (*model.Recognition, error)
	Touch(id int64, at time.Time) error
	// CreateAndCount inserts the record and increments the owner's distinct
	// track counter in one transaction.
	CreateAndCount(rec *model.Recognition) error
	SetFavorite(id int64, favorite bool) error
	Delete(id int64) error
	ListByUser(userID int64, favoritesOnly bool) ([]*model.LibraryEntry, error)
}

// gormRecognitionRepository implements RecognitionRepository over GORM.
type gormRecognitionRepository struct {
	db *gorm.DB
}

// NewGormRecognitionRepository creates a new gormRecognitionRepository.
func NewGormRecognitionRepository(db *gorm.DB) RecognitionRepository {
	return &gormRecognitionRepository{db: db}
}

// FindByUserAndTrack returns the live record for (user, track), or nil.
func (r *gormRecognitionRepository) FindByUserAndTrack(userID, trackID int64) (*model.Recognition, error) {
	var rec model.Recognition
	err := r.db.Where("user_id = ? AND track_id = ?", userID, trackID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recognition for user %d track %d: %w", userID, trackID, err)
	}
	return &rec, nil
}

// FindByID returns a recognition record by its ID, or nil.
func (r *gormRecognitionRepository) FindByID(id int64) (*model.Recognition, error) {
	var rec model.Recognition
	err := r.db.First(&rec, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recognition %d: %w", id, err)
	}
	return &rec, nil
}

// Touch refreshes the recognition timestamp, leaving the favorite flag alone.
func (r *gormRecognitionRepository) Touch(id int64, at time.Time) error {
	err := r.db.Model(&model.Recognition{}).Where("id = ?", id).
		Update("recognized_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to touch recognition %d: %w", id, err)
	}
	return nil
}

// CreateAndCount inserts the record and bumps users.distinct_tracks together,
// so the counter can never drift from the set of records.
func (r *gormRecognitionRepository) CreateAndCount(rec *model.Recognition) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to create recognition: %w", err)
		}
		err := tx.Exec("UPDATE users SET distinct_tracks = distinct_tracks + 1 WHERE id = ?", rec.UserID).Error
		if err != nil {
			return fmt.Errorf("failed to increment distinct track count for user %d: %w", rec.UserID, err)
		}
		return nil
	})
}

// SetFavorite sets the favorite flag on a record.
func (r *gormRecognitionRepository) SetFavorite(id int64, favorite bool) error {
	err := r.db.Model(&model.Recognition{}).Where("id = ?", id).
		Update("is_favorite", favorite).Error
	if err != nil {
		return fmt.Errorf("failed to set favorite on recognition %d: %w", id, err)
	}
	return nil
}

// Delete removes a recognition record. The owner's distinct counter is left
// untouched: it counts distinct tracks ever recognized.
func (r *gormRecognitionRepository) Delete(id int64) error {
	err := r.db.Delete(&model.Recognition{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete recognition %d: %w", id, err)
	}
	return nil
}

// ListByUser returns the user's library, most recent recognition first,
// each record joined with its track.
func (r *gormRecognitionRepository) ListByUser(userID int64, favoritesOnly bool) ([]*model.LibraryEntry, error) {
	q := r.db.Where("user_id = ?", userID)
	if favoritesOnly {
		q = q.Where("is_favorite = ?", true)
	}

	var recs []model.Recognition
	if err := q.Order("recognized_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list recognitions for user %d: %w", userID, err)
	}
	if len(recs) == 0 {
		return []*model.LibraryEntry{}, nil
	}

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.TrackID)
	}

	var tracks []model.Track
	if err := r.db.Table("tracks").Where("id IN ?", ids).Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tracks for user %d library: %w", userID, err)
	}
	byID := make(map[int64]model.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	entries := make([]*model.LibraryEntry, 0, len(recs))
	for _, rec := range recs {
		track, ok := byID[rec.TrackID]
		if !ok {
			// Track row missing for a live recognition; skip rather than fail
			// the whole listing.
			continue
		}
		entries = append(entries, &model.LibraryEntry{Recognition: rec, Track: track})
	}
	return entries, nil
}
