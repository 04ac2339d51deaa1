package model

import "time"

// Video is an entry in the applicant's recommended learning feed.
type Video struct {
	ID           ID       `json:"videoId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	URL          string   `json:"s3url"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	DurationSec  int      `json:"duration"`
	Tags         []string `json:"tags,omitempty"`
	Watched      bool     `json:"watched"`
}

// Key returns the identity used for local list splicing.
func (v Video) Key() string { return v.ID.String() }

// WatchProgress reports how far the user got through a video.
type WatchProgress struct {
	UserID      ID        `json:"applicantId" db:"user_id"`
	VideoID     ID        `json:"videoId" db:"video_id"`
	PositionSec int       `json:"watchedSeconds" db:"position_sec"`
	Completed   bool      `json:"completed" db:"completed"`
	RecordedAt  time.Time `json:"-" db:"recorded_at"`
}
