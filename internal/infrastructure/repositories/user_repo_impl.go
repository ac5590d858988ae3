package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"referral-bot.backend/internal/domain/entities"
	domainerrors "referral-bot.backend/internal/domain/errors"
	"referral-bot.backend/internal/infrastructure/models"
)

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the user or, when the id already exists, refreshes the
// mutable profile fields. The insert loses to a concurrent one instead of failing.
func (r *UserRepository) Upsert(ctx context.Context, user *entities.User) (bool, error) {
	if user.ID <= 0 {
		return false, domainerrors.ErrInvalidInput
	}

	db := GetDB(withoutLock(ctx), r.db)
	now := time.Now()
	state := user.VerificationState
	if state == "" {
		state = entities.VerificationUnverified
	}

	m := &models.User{
		ID:                user.ID,
		Username:          user.Username,
		DisplayName:       user.DisplayName,
		ReferrerID:        user.ReferrerID.Ptr(),
		VerificationState: string(state),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		user.VerificationState = state
		user.CreatedAt = now
		user.UpdatedAt = now
		return true, nil
	}

	updates := map[string]interface{}{
		"username":     user.Username,
		"display_name": user.DisplayName,
		"updated_at":   now,
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return false, err
	}
	return false, nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// Exists reports whether the user has been registered
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := GetDB(withoutLock(ctx), r.db).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// TransitionVerification is a conditional write: the row changes only while
// its current state is one of from.
func (r *UserRepository) TransitionVerification(ctx context.Context, id int64, from []entities.VerificationState, to entities.VerificationState) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	states := make([]string, 0, len(from))
	for _, s := range from {
		states = append(states, string(s))
	}

	result := GetDB(withoutLock(ctx), r.db).
		Model(&models.User{}).
		Where("id = ? AND verification_state IN ?", id, states).
		Updates(map[string]interface{}{
			"verification_state": string(to),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(withoutLock(ctx), r.db).Model(&models.User{}).Count(&count).Error
	return count, err
}

// CountByState returns the number of users in a verification state
func (r *UserRepository) CountByState(ctx context.Context, state entities.VerificationState) (int64, error) {
	var count int64
	err := GetDB(withoutLock(ctx), r.db).Model(&models.User{}).
		Where("verification_state = ?", string(state)).
		Count(&count).Error
	return count, err
}

// ListByState pages through users in a verification state by id
func (r *UserRepository) ListByState(ctx context.Context, state entities.VerificationState, afterID int64, limit int) ([]*entities.User, error) {
	if limit <= 0 {
		limit = 100
	}
	var ms []models.User
	err := GetDB(withoutLock(ctx), r.db).
		Where("verification_state = ? AND id > ?", string(state), afterID).
		Order("id ASC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	users := make([]*entities.User, 0, len(ms))
	for i := range ms {
		users = append(users, r.toEntity(&ms[i]))
	}
	return users, nil
}

func (r *UserRepository) toEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:                m.ID,
		Username:          m.Username,
		DisplayName:       m.DisplayName,
		ReferrerID:        null.Int64FromPtr(m.ReferrerID),
		VerificationState: entities.VerificationState(m.VerificationState),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
