package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	domainerrors "referral-bot.backend/internal/domain/errors"
	"referral-bot.backend/internal/infrastructure/models"
)

// ReferralRepository implements referral edge operations
type ReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Insert relies on the (referrer_id, referred_id) unique index, so concurrent
// duplicates leave exactly one row and report inserted=false to the rest.
func (r *ReferralRepository) Insert(ctx context.Context, referrerID, referredID int64) (bool, error) {
	if referrerID <= 0 || referredID <= 0 {
		return false, domainerrors.ErrInvalidInput
	}
	if referrerID == referredID {
		return false, domainerrors.ErrSelfReferral
	}

	m := &models.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
		CreatedAt:  time.Now(),
	}
	result := GetDB(withoutLock(ctx), r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referrer_id"}, {Name: "referred_id"}},
			DoNothing: true,
		}).
		Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountByReferrer counts edges owned by referrerID
func (r *ReferralRepository) CountByReferrer(ctx context.Context, referrerID int64) (int64, error) {
	var count int64
	err := GetDB(withoutLock(ctx), r.db).Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error
	return count, err
}

// Count returns the total number of edges
func (r *ReferralRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(withoutLock(ctx), r.db).Model(&models.Referral{}).Count(&count).Error
	return count, err
}
