package models

import (
	"time"
)

type RewardAccount struct {
	UserID          int64 `gorm:"primaryKey;autoIncrement:false"`
	Balance         int64 `gorm:"not null;default:0"`
	ThresholdGrants int64 `gorm:"not null;default:0"`
	AdminGrants     int64 `gorm:"not null;default:0"`
	Claims          int64 `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (RewardAccount) TableName() string {
	return "reward_accounts"
}

type RewardCode struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"not null;index"`
	Code      string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Kind      string `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time
}

func (RewardCode) TableName() string {
	return "reward_codes"
}
