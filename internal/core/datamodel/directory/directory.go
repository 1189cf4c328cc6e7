package directory

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Phone        string    `gorm:"column:phone"`
	AvatarURL    string    `gorm:"column:avatar_url"`
	PrimaryRole  string    `gorm:"column:primary_role;default:user"`
	IsSuperAdmin bool      `gorm:"column:is_super_admin;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

type UserRole struct {
	ID         int64     `gorm:"primaryKey"`
	UserEmail  string    `gorm:"column:user_email;index;not null"`
	Role       string    `gorm:"column:role;not null"`
	AssignedAt time.Time `gorm:"column:assigned_at"`
	AssignedBy string    `gorm:"column:assigned_by"`
}

func (UserRole) TableName() string { return "user_roles" }

type Fiduciary struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;uniqueIndex;not null"`
	Sector    string    `gorm:"column:sector"`
	Status    string    `gorm:"column:status;default:Active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Fiduciary) TableName() string { return "fiduciaries" }

type DPO struct {
	ID          int64     `gorm:"primaryKey"`
	FiduciaryID int64     `gorm:"column:fiduciary_id;index;not null"`
	Name        string    `gorm:"column:name;not null"`
	Email       string    `gorm:"column:email;not null"`
	Phone       string    `gorm:"column:phone;not null"`
	IsPrimary   bool      `gorm:"column:is_primary;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DPO) TableName() string { return "dpos" }
