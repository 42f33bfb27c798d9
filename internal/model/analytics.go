package model

import (
	"time"

	"gorm.io/datatypes"
)

const EventApplicationSubmitted = "application_submitted"

type AnalyticsEvent struct {
	ID                   int64             `gorm:"primaryKey" json:"id"`
	EventType            string            `gorm:"size:50;not null;index" json:"event_type"`
	UserID               string            `gorm:"size:36;index" json:"user_id"` // application id
	ContemplativeContext datatypes.JSONMap `gorm:"type:json" json:"contemplative_context"`
	CreatedAt            time.Time         `gorm:"index" json:"created_at"`
}

func (AnalyticsEvent) TableName() string {
	return "contemplative_analytics"
}
