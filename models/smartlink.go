package models

import "time"

type SmartLink struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	VideoID        *uint     `gorm:"index" json:"video_id,omitempty"`
	Video          *Video    `gorm:"foreignKey:VideoID;constraint:OnDelete:SET NULL" json:"-"`
	Slug           string    `gorm:"size:64;not null;uniqueIndex" json:"slug"`
	TargetURL      string    `gorm:"type:text;not null" json:"target_url"`
	SourcePlatform *string   `gorm:"size:32" json:"source_platform,omitempty"`
	Clicks         int       `gorm:"not null;default:0" json:"clicks"`
	CreatedAt      time.Time `json:"created_at"`
}

func (SmartLink) TableName() string {
	return "smartlinks"
}

// Click is an append-only redirect event.
type Click struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SmartLinkID uint       `gorm:"column:smartlink_id;not null;index" json:"smartlink_id"`
	SmartLink   *SmartLink `gorm:"foreignKey:SmartLinkID;constraint:OnDelete:CASCADE" json:"-"`
	Ts          time.Time  `gorm:"not null;autoCreateTime;index" json:"ts"`
	Source      string     `gorm:"type:text" json:"source"`
	Device      string     `gorm:"size:16" json:"device"`
	IP          string     `gorm:"type:text" json:"ip"`
	UserAgent   string     `gorm:"type:text" json:"user_agent"`
	Referrer    string     `gorm:"type:text" json:"referrer"`
}

func (Click) TableName() string {
	return "clicks"
}

// EmailCapture is an append-only email submission from a landing page.
type EmailCapture struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"type:text;not null" json:"email"`
	SourceSmartLinkID *uint      `gorm:"column:source_smartlink_id;index" json:"source_smartlink_id,omitempty"`
	SourceSmartLink   *SmartLink `gorm:"foreignKey:SourceSmartLinkID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (EmailCapture) TableName() string {
	return "emails"
}
