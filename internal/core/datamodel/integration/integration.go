package integration

import "time"

type APIKey struct {
	ID          int64      `gorm:"primaryKey"`
	FiduciaryID int64      `gorm:"column:fiduciary_id;index;not null"`
	KeyName     string     `gorm:"column:key_name;not null"`
	KeyPrefix   string     `gorm:"column:key_prefix;uniqueIndex;not null"`
	SecretHash  string     `gorm:"column:secret_hash;not null"`
	Environment string     `gorm:"column:environment;default:test"`
	Status      string     `gorm:"column:status;default:active"`
	UsageCount  int64      `gorm:"column:usage_count;default:0"`
	LastUsedAt  *time.Time `gorm:"column:last_used_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (APIKey) TableName() string { return "api_keys" }

type Webhook struct {
	ID          int64     `gorm:"primaryKey"`
	FiduciaryID int64     `gorm:"column:fiduciary_id;index;not null"`
	URL         string    `gorm:"column:url;not null"`
	Status      string    `gorm:"column:status;default:active"`
	Events      string    `gorm:"column:events"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Webhook) TableName() string { return "webhooks" }

type PurposeCode struct {
	ID          int64     `gorm:"primaryKey"`
	FiduciaryID int64     `gorm:"column:fiduciary_id;index"`
	Code        int       `gorm:"column:code;not null"`
	Purpose     string    `gorm:"column:purpose;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PurposeCode) TableName() string { return "purpose_codes" }

type FiduciaryEvent struct {
	ID          int64     `gorm:"primaryKey"`
	FiduciaryID int64     `gorm:"column:fiduciary_id;index;not null"`
	EventType   string    `gorm:"column:event_type;not null"`
	Description string    `gorm:"column:description"`
	OccurredAt  time.Time `gorm:"column:occurred_at"`
}

func (FiduciaryEvent) TableName() string { return "fiduciary_events" }
