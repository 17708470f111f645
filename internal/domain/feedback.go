package domain

import "time"

// Feedback is immutable once stored.
type Feedback struct {
	ID           int64
	UserID       int64
	SessionID    int64
	HotelID      string
	RestaurantID *string
	Rating       int // 1-5
	Comment      string
	CreatedAt    time.Time
}

// FeedbackEntry is the (rating, comment) pair the profile hint is built from.
type FeedbackEntry struct {
	Rating  int
	Comment string
}

type Session struct {
	ID     int64
	UserID int64
	Token  string
}
