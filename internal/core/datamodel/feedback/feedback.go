package feedback

import "time"

type Feedback struct {
	ID           int64      `gorm:"primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Email        string     `gorm:"column:email;not null"`
	Category     string     `gorm:"column:category"`
	Message      string     `gorm:"column:message;not null"`
	Response     *string    `gorm:"column:response"`
	ResponseDate *time.Time `gorm:"column:response_date"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Feedback) TableName() string { return "feedbacks" }
