package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"referral-bot.backend/internal/domain/entities"
	domainerrors "referral-bot.backend/internal/domain/errors"
	"referral-bot.backend/internal/infrastructure/models"
)

// RewardRepository implements reward ledger operations
type RewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// EnsureAccount inserts a zero-balance account unless one exists
func (r *RewardRepository) EnsureAccount(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return domainerrors.ErrInvalidInput
	}
	now := time.Now()
	return GetDB(withoutLock(ctx), r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RewardAccount{UserID: userID, CreatedAt: now, UpdatedAt: now}).Error
}

// GetAccount never reports not-found; a missing row reads as a zero account
func (r *RewardRepository) GetAccount(ctx context.Context, userID int64) (*entities.RewardAccount, error) {
	var m models.RewardAccount
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entities.RewardAccount{UserID: userID}, nil
		}
		return nil, err
	}
	return toRewardAccount(&m), nil
}

// AdjustBalance applies delta in a single conditional UPDATE. A decrement that
// would go below zero matches no row and yields ErrNegativeBalance.
func (r *RewardRepository) AdjustBalance(ctx context.Context, userID int64, delta int64, code *entities.RewardCode) (*entities.RewardAccount, error) {
	if err := r.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"balance":    gorm.Expr("balance + ?", delta),
		"updated_at": time.Now(),
	}
	if code != nil {
		switch code.Kind {
		case entities.RewardCodeThreshold:
			updates["threshold_grants"] = gorm.Expr("threshold_grants + 1")
		case entities.RewardCodeAdmin:
			updates["admin_grants"] = gorm.Expr("admin_grants + 1")
		case entities.RewardCodeClaim:
			updates["claims"] = gorm.Expr("claims + 1")
		}
	}

	db := GetDB(withoutLock(ctx), r.db)
	query := db.Model(&models.RewardAccount{}).Where("user_id = ?", userID)
	if delta < 0 {
		query = query.Where("balance >= ?", -delta)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domainerrors.ErrNegativeBalance
	}

	if code != nil {
		if err := r.createCode(ctx, userID, code); err != nil {
			return nil, err
		}
	}
	return r.GetAccount(withoutLock(ctx), userID)
}

// RecordThresholdGrant is a compare-and-swap on threshold_grants: it credits
// one unit only if no other evaluation has granted since expected was read.
func (r *RewardRepository) RecordThresholdGrant(ctx context.Context, userID int64, expected int64, code string) (bool, error) {
	if err := r.EnsureAccount(ctx, userID); err != nil {
		return false, err
	}

	result := GetDB(withoutLock(ctx), r.db).
		Model(&models.RewardAccount{}).
		Where("user_id = ? AND threshold_grants = ?", userID, expected).
		Updates(map[string]interface{}{
			"balance":          gorm.Expr("balance + 1"),
			"threshold_grants": gorm.Expr("threshold_grants + 1"),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	err := r.createCode(ctx, userID, &entities.RewardCode{Code: code, Kind: entities.RewardCodeThreshold})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListCodes returns issued codes oldest first
func (r *RewardRepository) ListCodes(ctx context.Context, userID int64) ([]*entities.RewardCode, error) {
	var ms []models.RewardCode
	if err := GetDB(withoutLock(ctx), r.db).Where("user_id = ?", userID).Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}

	codes := make([]*entities.RewardCode, 0, len(ms))
	for i := range ms {
		codes = append(codes, &entities.RewardCode{
			ID:        ms[i].ID,
			UserID:    ms[i].UserID,
			Code:      ms[i].Code,
			Kind:      entities.RewardCodeKind(ms[i].Kind),
			CreatedAt: ms[i].CreatedAt,
		})
	}
	return codes, nil
}

// CountRewarded counts users that received at least one grant
func (r *RewardRepository) CountRewarded(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(withoutLock(ctx), r.db).Model(&models.RewardAccount{}).
		Where("threshold_grants + admin_grants > 0").
		Count(&count).Error
	return count, err
}

func (r *RewardRepository) createCode(ctx context.Context, userID int64, code *entities.RewardCode) error {
	m := &models.RewardCode{
		UserID:    userID,
		Code:      code.Code,
		Kind:      string(code.Kind),
		CreatedAt: time.Now(),
	}
	if err := GetDB(withoutLock(ctx), r.db).Create(m).Error; err != nil {
		return err
	}
	code.ID = m.ID
	code.UserID = userID
	code.CreatedAt = m.CreatedAt
	return nil
}

func toRewardAccount(m *models.RewardAccount) *entities.RewardAccount {
	return &entities.RewardAccount{
		UserID:          m.UserID,
		Balance:         m.Balance,
		ThresholdGrants: m.ThresholdGrants,
		AdminGrants:     m.AdminGrants,
		Claims:          m.Claims,
		UpdatedAt:       m.UpdatedAt,
	}
}
