package model

import "time"

// User 使用者（受益人或管理員）
type User struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
}
