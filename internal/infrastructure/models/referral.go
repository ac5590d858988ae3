package models

import (
	"time"
)

// Referral is unique per (referrer_id, referred_id)
type Referral struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	ReferrerID int64 `gorm:"not null;uniqueIndex:idx_referrals_pair,priority:1"`
	ReferredID int64 `gorm:"not null;uniqueIndex:idx_referrals_pair,priority:2;index"`
	CreatedAt  time.Time
}

func (Referral) TableName() string {
	return "referrals"
}
