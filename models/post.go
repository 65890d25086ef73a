package models

import "time"

// Post is one publish of a Video to one platform. Engagement counters are
// only written by the engagement refresher.
type Post struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	VideoID        uint       `gorm:"not null;index" json:"video_id"`
	PlatformTarget string     `gorm:"size:32;not null;index" json:"platform_target"`
	ExternalPostID *string    `gorm:"size:255" json:"external_post_id,omitempty"`
	Views          int        `gorm:"not null;default:0" json:"views"`
	Likes          int        `gorm:"not null;default:0" json:"likes"`
	Comments       int        `gorm:"not null;default:0" json:"comments"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}
