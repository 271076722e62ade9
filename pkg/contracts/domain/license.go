// Package domain contains the shared domain models for the GameLoop
// launcher license system. These types serve as the Single Source of
// Truth (SSOT) for the HTTP transport, services, and admin tooling.
package domain

import (
	"time"
)

// ActivationRequest is the payload a launcher UI posts to activate a
// license key on the current device.
type ActivationRequest struct {
	LicenseKey string `json:"license_key" validate:"required,min=20,max=40"`
}

// License represents one issued license key as stored in the admin
// dashboard database.
type License struct {
	ID           string    `json:"id" db:"id" validate:"required,uuid"`
	Key          string    `json:"key" db:"key" validate:"required,min=20"`
	CustomerID   string    `json:"customer_id,omitempty" db:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty" db:"customer_name"`
	Type         string    `json:"type" db:"type" validate:"required,oneof=DEMO BASIC PRO ENTERPRISE"`
	Status       string    `json:"status" db:"status" validate:"required,oneof=active expired revoked"`
	CreatedDate  time.Time `json:"created_date" db:"created_date"`
	ExpiryDate   time.Time `json:"expiry_date" db:"expiry_date" validate:"required"`
	DeviceLimit  int       `json:"device_limit" db:"device_limit" validate:"min=1"`
	DevicesBound int       `json:"devices_bound" db:"devices_bound" validate:"min=0"`
	Notes        string    `json:"notes,omitempty" db:"notes"`
}

// LicenseStatus values used by the admin dashboard database. These are
// distinct from launcher binding statuses; a revoked key never appears
// in the launcher snapshot at all.
const (
	LicenseStatusActive  = "active"
	LicenseStatusExpired = "expired"
	LicenseStatusRevoked = "revoked"
)

// BoundDevice is one hardware binding listed against a license in the
// admin view.
type BoundDevice struct {
	DeviceID        string    `json:"device_id" validate:"required"`
	DeviceName      string    `json:"device_name,omitempty"`
	Status          string    `json:"status" validate:"required,oneof=active deactivated blacklisted"`
	FirstActivation time.Time `json:"first_activation"`
	LastSeen        time.Time `json:"last_seen"`
}
