package consent

import "time"

type Consent struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      int64      `gorm:"column:user_id;index;not null"`
	FiduciaryID int64      `gorm:"column:fiduciary_id;index;not null"`
	Entity      string     `gorm:"column:entity;not null"`
	DataItems   string     `gorm:"column:data_items"`
	PurposeCode string     `gorm:"column:purpose_code"`
	PurposeText string     `gorm:"column:purpose_text"`
	RequestedAt time.Time  `gorm:"column:requested_at"`
	Expiry      *time.Time `gorm:"column:expiry"`
	GrantedAt   *time.Time `gorm:"column:granted_at"`
	SuspendedAt *time.Time `gorm:"column:suspended_at"`
	Status      string     `gorm:"column:status;default:Pending"`
	IsRead      int        `gorm:"column:is_read;default:0"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Consent) TableName() string { return "consents" }
