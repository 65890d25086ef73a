package models

import (
	"time"

	"gorm.io/datatypes"
)

type LogEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Level     string         `gorm:"size:16;not null" json:"level"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Context   datatypes.JSON `json:"context,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (LogEntry) TableName() string {
	return "logs"
}

// All lists every model owned by the content store, in migration order.
func All() []interface{} {
	return []interface{}{
		&Video{},
		&Post{},
		&SmartLink{},
		&Click{},
		&EmailCapture{},
		&RevenueEvent{},
		&LogEntry{},
	}
}
