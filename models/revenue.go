package models

import (
	"time"

	"gorm.io/datatypes"
)

type RevenueEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ExternalID  *string        `gorm:"size:255;uniqueIndex" json:"external_id,omitempty"`
	Source      string         `gorm:"size:64;not null" json:"source"`
	AmountCents int64          `gorm:"not null" json:"amount_cents"`
	Currency    string         `gorm:"size:8;not null;default:'USD'" json:"currency"`
	Ts          time.Time      `gorm:"not null;autoCreateTime" json:"ts"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
}

func (RevenueEvent) TableName() string {
	return "revenues"
}
