package models

import (
	"time"
)

type User struct {
	ID                int64  `gorm:"primaryKey;autoIncrement:false"`
	Username          string `gorm:"type:varchar(64)"`
	DisplayName       string `gorm:"type:varchar(255)"`
	ReferrerID        *int64 `gorm:"index"`
	VerificationState string `gorm:"type:varchar(20);not null;default:'unverified';index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (User) TableName() string {
	return "users"
}
