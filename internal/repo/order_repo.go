package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter narrows and windows an order listing. Empty strings disable a
// filter.
type OrderFilter struct {
	UserID string
	Status string
	Offset int
	Limit  int
}

// OrderRepo persists orders.
type OrderRepo struct {
	db *gorm.DB
}

// NewOrderRepo returns an OrderRepo backed by db.
func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

// FindByID returns the order with id, or (nil, nil) when there is none.
func (r *OrderRepo) FindByID(ctx context.Context, id string) (*OrderRow, error) {
	var row OrderRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindMany returns one page of orders, newest first, together with the
// number of orders matching the filter regardless of the window.
func (r *OrderRepo) FindMany(ctx context.Context, f OrderFilter) ([]OrderRow, int64, error) {
	q := r.db.WithContext(ctx).Model(&OrderRow{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []OrderRow{}
	if total == 0 {
		return rows, 0, nil
	}
	err := q.Order("created_at desc").Order("id").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error
	return rows, total, err
}

// Create inserts row, assigning its ID and timestamps.
func (r *OrderRepo) Create(ctx context.Context, row *OrderRow) (*OrderRow, error) {
	return createOrder(ctx, r.db, row)
}

func createOrder(ctx context.Context, db *gorm.DB, row *OrderRow) (*OrderRow, error) {
	now := time.Now().UTC()
	row.ID = uuid.NewString()
	row.CreatedAt = now
	row.UpdatedAt = now
	if row.Items == nil {
		row.Items = OrderItems{}
	}
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// CreateIdempotent inserts row unless userID already created an order with
// the same key inside the TTL, in which case the earlier order is returned
// and replayed is true. Expired or orphaned keys are replaced.
func (r *OrderRepo) CreateIdempotent(ctx context.Context, row *OrderRow, key string, ttl time.Duration) (out *OrderRow, replayed bool, err error) {
	if prev, err := r.replay(ctx, row.UserID, key); err != nil || prev != nil {
		return prev, prev != nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteStaleIdempotency(ctx, tx, row.UserID, key, time.Now().UTC()); err != nil {
			return err
		}
		if _, err := createOrder(ctx, tx, row); err != nil {
			return err
		}
		_, err := CreateIdempotency(ctx, tx, row.UserID, key, row.ID, ttl)
		return err
	})
	if errors.Is(err, ErrDuplicate) {
		// A concurrent request with the same key won.
		prev, rerr := r.replay(ctx, row.UserID, key)
		if rerr != nil {
			return nil, false, rerr
		}
		if prev != nil {
			return prev, true, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	return row, false, nil
}

func (r *OrderRepo) replay(ctx context.Context, userID, key string) (*OrderRow, error) {
	rec, err := GetIdempotency(ctx, r.db, userID, key, time.Now().UTC())
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, rec.OrderID)
}

// UpdateStatus moves the order from one status to another. The write only
// applies while the stored status still equals from; otherwise (or when the
// order does not exist) it returns (nil, nil).
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, from, to string) (*OrderRow, error) {
	res := r.db.WithContext(ctx).
		Model(&OrderRow{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

// Delete removes the order while its stored status equals status. It
// reports whether a row was removed.
func (r *OrderRepo) Delete(ctx context.Context, id, status string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, status).
		Delete(&OrderRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
