package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WidgetFilter narrows and windows a widget listing. Name matches as a
// case-insensitive substring; empty disables it.
type WidgetFilter struct {
	Name   string
	Offset int
	Limit  int
}

// WidgetRepo persists widgets.
type WidgetRepo struct {
	db *gorm.DB
}

// NewWidgetRepo returns a WidgetRepo backed by db.
func NewWidgetRepo(db *gorm.DB) *WidgetRepo { return &WidgetRepo{db: db} }

// FindByID returns the widget with id, or (nil, nil) when there is none.
func (r *WidgetRepo) FindByID(ctx context.Context, id string) (*WidgetRow, error) {
	var row WidgetRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindMany returns one page of widgets, newest first, and the unwindowed
// match count.
func (r *WidgetRepo) FindMany(ctx context.Context, f WidgetFilter) ([]WidgetRow, int64, error) {
	q := r.db.WithContext(ctx).Model(&WidgetRow{})
	if f.Name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(f.Name))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []WidgetRow{}
	if total == 0 {
		return rows, 0, nil
	}
	err := q.Order("created_at desc").Order("id").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error
	return rows, total, err
}

// Create inserts a widget named name.
func (r *WidgetRepo) Create(ctx context.Context, name string) (*WidgetRow, error) {
	now := time.Now().UTC()
	row := &WidgetRow{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update renames the widget. It returns (nil, nil) when id does not exist.
func (r *WidgetRepo) Update(ctx context.Context, id, name string) (*WidgetRow, error) {
	res := r.db.WithContext(ctx).
		Model(&WidgetRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

// Delete removes the widget and reports whether it existed.
func (r *WidgetRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&WidgetRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
