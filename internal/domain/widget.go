package domain

import "time"

// WidgetNameMaxLen caps widget names, counted in characters.
const WidgetNameMaxLen = 200

// Widget is a named catalogue entry with no lifecycle beyond create, rename
// and delete.
type Widget struct {
	ID        string    `json:"id" example:"5f1c1a3e-3c57-4c4b-9a43-6a4f6f2d9f10"`
	Name      string    `json:"name" example:"Demo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
