package models

import (
	"gorm.io/gorm"
)

// All lists the ledger tables in creation order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Referral{},
		&RewardAccount{},
		&RewardCode{},
	}
}

// Migrate creates or updates the ledger schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
