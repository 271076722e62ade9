package domain

import (
	"time"
)

// Customer represents a purchaser record in the admin dashboard. Only a
// display name is required; the contact handles are whatever the sales
// channel captured.
type Customer struct {
	ID          string    `json:"id" db:"id" validate:"required,uuid"`
	Name        string    `json:"name" db:"name" validate:"required,min=2,max=200"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	Whatsapp    string    `json:"whatsapp,omitempty" db:"whatsapp"`
	Telegram    string    `json:"telegram,omitempty" db:"telegram"`
	Discord     string    `json:"discord,omitempty" db:"discord"`
	CreatedDate time.Time `json:"created_date" db:"created_date"`
}
