package models

import (
	"time"
)

// Video lifecycle statuses. A video only moves forward through them.
const (
	StatusScraped   = "scraped"
	StatusProcessed = "processed"
	StatusPosted    = "posted"
)

type Video struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Platform        string    `gorm:"size:32;not null;uniqueIndex:videos_unique_platform_video,priority:1" json:"platform"`
	ExternalVideoID string    `gorm:"column:video_id;size:255;not null;uniqueIndex:videos_unique_platform_video,priority:2" json:"video_id"`
	Title           string    `gorm:"type:text" json:"title"`
	DurationSeconds int       `json:"duration_seconds"`
	URL             string    `gorm:"type:text;not null" json:"url"`
	Thumbnail       string    `gorm:"type:text" json:"thumbnail,omitempty"`
	Niche           string    `gorm:"size:100;index" json:"niche"`
	Status          string    `gorm:"size:32;not null;default:'scraped';index" json:"status"`
	ProcessedPath   *string   `gorm:"type:text" json:"processed_path,omitempty"`

	// Failed attempts while still scraped. Runs pick the least-tried videos first.
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	LastError     *string    `gorm:"type:text" json:"last_error,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Posts []Post `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Video) TableName() string {
	return "videos"
}
