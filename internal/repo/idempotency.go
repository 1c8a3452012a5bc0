package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-backend/internal/domain"
)

// ErrNotFound is returned by the idempotency helpers when no live record
// exists.
var ErrNotFound = gorm.ErrRecordNotFound

// GetIdempotency returns the non-expired record for (userID, key) or
// ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, key string, now time.Time) (*domain.Idempotency, error) {
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND key = ? AND expires_at > ?", userID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency records that key produced orderID. It returns
// ErrDuplicate when (userID, key) is already taken.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, key, orderID string, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    userID,
		Key:       key,
		OrderID:   orderID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// deleteStaleIdempotency drops the record for (userID, key) when it has
// expired or its order no longer exists.
func deleteStaleIdempotency(ctx context.Context, db *gorm.DB, userID, key string, now time.Time) error {
	live := db.Model(&OrderRow{}).Select("id")
	return db.WithContext(ctx).
		Where("user_id = ? AND key = ?", userID, key).
		Where("expires_at <= ? OR order_id NOT IN (?)", now, live).
		Delete(&domain.Idempotency{}).Error
}

// PurgeExpiredIdempotency removes records that expired before now and
// returns how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
