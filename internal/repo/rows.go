package repo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRow is one persisted order line.
type OrderItemRow struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderItems is stored as a JSON text column.
type OrderItems []OrderItemRow

// Value implements driver.Valuer.
func (it OrderItems) Value() (driver.Value, error) {
	if it == nil {
		it = OrderItems{}
	}
	b, err := json.Marshal(it)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (it *OrderItems) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*it = OrderItems{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("order items: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, it)
}

// OrderRow is the persisted shape of an order.
type OrderRow struct {
	ID        string          `gorm:"type:varchar(36);primaryKey"`
	UserID    string          `gorm:"type:varchar(36);not null;index"`
	Status    string          `gorm:"type:varchar(16);not null;index"`
	Total     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Items     OrderItems      `gorm:"type:text;not null"`
	CreatedAt time.Time       `gorm:"not null;index"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (OrderRow) TableName() string { return "orders" }

// WidgetRow is the persisted shape of a widget.
type WidgetRow struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (WidgetRow) TableName() string { return "widgets" }
