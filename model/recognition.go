package model

import "time"

// Recognition links a user to a track they have recognized. At most one live
// row exists per (user, track); re-recognition only refreshes RecognizedAt.
type Recognition struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       int64     `json:"userId" gorm:"uniqueIndex:uq_user_track;not null"`
	TrackID      int64     `json:"trackId" gorm:"uniqueIndex:uq_user_track;not null"`
	RecognizedAt time.Time `json:"recognizedAt"`
	IsFavorite   bool      `json:"isFavorite"`
}

// TableName keeps the table name aligned with the rest of the schema.
func (Recognition) TableName() string {
	return "recognitions"
}

// LibraryEntry is a recognition joined with its track, as rendered in a
// user's library.
type LibraryEntry struct {
	Recognition Recognition `json:"recognition"`
	Track       Track       `json:"track"`
}
