package model

import "time"

const (
	GiftStatusActive   = "active"
	GiftStatusInactive = "inactive"
)

// Gift 禮品目錄項目
type Gift struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Value       float64   `json:"value" db:"value"`
	Currency    string    `json:"currency" db:"currency"`
	Active      bool      `json:"active" db:"active"`
	PackID      *int      `json:"pack_id,omitempty" db:"pack_id"`
	Image       *string   `json:"image,omitempty" db:"image"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
