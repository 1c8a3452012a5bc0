package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-commerce-backend/internal/domain"
	"github.com/tbourn/go-commerce-backend/internal/observability"
	"github.com/tbourn/go-commerce-backend/internal/repo"
	"github.com/tbourn/go-commerce-backend/internal/utils"
)

const widgetScope = "services/WidgetService"

// WidgetRepository is the persistence contract WidgetService depends on.
type WidgetRepository interface {
	FindByID(ctx context.Context, id string) (*repo.WidgetRow, error)
	FindMany(ctx context.Context, f repo.WidgetFilter) ([]repo.WidgetRow, int64, error)
	Create(ctx context.Context, name string) (*repo.WidgetRow, error)
	Update(ctx context.Context, id, name string) (*repo.WidgetRow, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ListWidgetsQuery selects a page of widgets, optionally filtered by a
// case-insensitive name fragment.
type ListWidgetsQuery struct {
	Page  int
	Limit int
	Name  string
}

// WidgetService keeps widget names trimmed and non-empty.
type WidgetService struct {
	Repo WidgetRepository
}

// NewWidgetService returns a WidgetService using r.
func NewWidgetService(r WidgetRepository) *WidgetService {
	return &WidgetService{Repo: r}
}

func (s *WidgetService) GetWidget(ctx context.Context, id string) (_ *domain.Widget, err error) {
	ctx, span := observability.StartSpan(ctx, widgetScope, "GetWidget", attribute.String("widget.id", id))
	defer func() { observability.EndSpan(span, err) }()

	row, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load widget %s: %w", id, err)
	}
	if row == nil {
		return nil, errWidgetNotFound(id)
	}
	w := toWidget(row)
	return &w, nil
}

func (s *WidgetService) ListWidgets(ctx context.Context, q ListWidgetsQuery) (_ Page[domain.Widget], err error) {
	page, limit, offset := utils.Window(q.Page, q.Limit, utils.DefaultPageLimit, utils.MaxPageLimit)
	ctx, span := observability.StartSpan(ctx, widgetScope, "ListWidgets",
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	)
	defer func() { observability.EndSpan(span, err) }()

	rows, total, err := s.Repo.FindMany(ctx, repo.WidgetFilter{
		Name:   strings.TrimSpace(q.Name),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return Page[domain.Widget]{}, fmt.Errorf("list widgets: %w", err)
	}
	items := make([]domain.Widget, 0, len(rows))
	for i := range rows {
		items = append(items, toWidget(&rows[i]))
	}
	return Page[domain.Widget]{Items: items, Page: page, Limit: limit, Total: total}, nil
}

// CreateWidget stores a widget under the trimmed name.
func (s *WidgetService) CreateWidget(ctx context.Context, name string) (_ *domain.Widget, err error) {
	ctx, span := observability.StartSpan(ctx, widgetScope, "CreateWidget")
	defer func() { observability.EndSpan(span, err) }()

	name, err = normalizeWidgetName(name)
	if err != nil {
		return nil, err
	}
	row, err := s.Repo.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create widget: %w", err)
	}
	w := toWidget(row)
	return &w, nil
}

// UpdateWidget renames a widget.
func (s *WidgetService) UpdateWidget(ctx context.Context, id, name string) (_ *domain.Widget, err error) {
	ctx, span := observability.StartSpan(ctx, widgetScope, "UpdateWidget", attribute.String("widget.id", id))
	defer func() { observability.EndSpan(span, err) }()

	name, err = normalizeWidgetName(name)
	if err != nil {
		return nil, err
	}
	row, err := s.Repo.Update(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("update widget %s: %w", id, err)
	}
	if row == nil {
		return nil, errWidgetNotFound(id)
	}
	w := toWidget(row)
	return &w, nil
}

func (s *WidgetService) DeleteWidget(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, widgetScope, "DeleteWidget", attribute.String("widget.id", id))
	defer func() { observability.EndSpan(span, err) }()

	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete widget %s: %w", id, err)
	}
	if !deleted {
		return errWidgetNotFound(id)
	}
	return nil
}

func normalizeWidgetName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errEmptyWidgetName()
	}
	if utf8.RuneCountInString(name) > domain.WidgetNameMaxLen {
		return "", errWidgetNameTooLong()
	}
	return name, nil
}

func toWidget(r *repo.WidgetRow) domain.Widget {
	return domain.Widget{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
