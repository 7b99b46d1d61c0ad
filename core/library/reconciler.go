package library

import (
	"context"
	"errors"
	"time"

	"gojam/logger"
	"gojam/model"
	"gojam/repository"
)

// ErrNotOwned is returned when a user tries to mutate a recognition record
// that does not belong to them. The record is left unchanged.
var ErrNotOwned = errors.New("library: record not owned by user")

// Reconciler maintains per-user recognition history. It references tracks by
// local ID only and never creates or deletes catalog rows.
type Reconciler struct {
	recs repository.RecognitionRepository
}

// NewReconciler creates a Reconciler over the recognition repository.
func NewReconciler(recs repository.RecognitionRepository) *Reconciler {
	return &Reconciler{recs: recs}
}

// Record reconciles one recognition event into the user's library. On
// re-recognition only the timestamp moves; the favorite flag survives and the
// distinct-track counter does not change. Returns whether the track was new
// for this user.
func (r *Reconciler) Record(ctx context.Context, userID, trackID int64) (bool, error) {
	existing, err := r.recs.FindByUserAndTrack(userID, trackID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := r.recs.Touch(existing.ID, time.Now()); err != nil {
			return false, err
		}
		return false, nil
	}

	rec := &model.Recognition{
		UserID:       userID,
		TrackID:      trackID,
		RecognizedAt: time.Now(),
		IsFavorite:   false,
	}
	if err := r.recs.CreateAndCount(rec); err != nil {
		return false, err
	}
	logger.Debug("New track in user library",
		logger.Int64("userId", userID),
		logger.Int64("trackId", trackID))
	return true, nil
}

// owned loads a record and enforces ownership.
func (r *Reconciler) owned(userID, recordID int64) (*model.Recognition, error) {
	rec, err := r.recs.FindByID(recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != userID {
		return nil, ErrNotOwned
	}
	return rec, nil
}

// ToggleFavorite flips the favorite flag on a record the user owns.
func (r *Reconciler) ToggleFavorite(ctx context.Context, userID, recordID int64) (bool, error) {
	rec, err := r.owned(userID, recordID)
	if err != nil {
		return false, err
	}
	next := !rec.IsFavorite
	if err := r.recs.SetFavorite(rec.ID, next); err != nil {
		return false, err
	}
	return next, nil
}

// Delete removes a record the user owns. The user's distinct-track counter is
// deliberately not decremented: it counts distinct tracks ever recognized.
func (r *Reconciler) Delete(ctx context.Context, userID, recordID int64) error {
	rec, err := r.owned(userID, recordID)
	if err != nil {
		return err
	}
	return r.recs.Delete(rec.ID)
}

// List returns the user's library, most recent first.
func (r *Reconciler) List(ctx context.Context, userID int64, favoritesOnly bool) ([]*model.LibraryEntry, error) {
	return r.recs.ListByUser(userID, favoritesOnly)
}
