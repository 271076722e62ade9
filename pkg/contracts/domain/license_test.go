package domain

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var validate = validator.New()

func TestActivationRequestValidation(t *testing.T) {
	testCases := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "GL-PRO-2026-AAAA-BBBB-CCCC", false},
		{"missing key", "", true},
		{"too short", "GL-PRO", true},
		{"too long", "GL-ENTERPRISE-2026-AAAA-BBBB-CCCC-DDDD-EEEE-FFFF", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate.Struct(&ActivationRequest{LicenseKey: tc.key})
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func validLicense() License {
	return License{
		ID:          uuid.NewString(),
		Key:         "GL-PRO-2026-AAAA-BBBB-CCCC",
		Type:        "PRO",
		Status:      LicenseStatusActive,
		CreatedDate: time.Now(),
		ExpiryDate:  time.Now().AddDate(1, 0, 0),
		DeviceLimit: 5,
	}
}

func TestLicenseValidation(t *testing.T) {
	assert.NoError(t, validate.Struct(validLicense()))

	testCases := []struct {
		name   string
		mutate func(*License)
	}{
		{"bad id", func(l *License) { l.ID = "not-a-uuid" }},
		{"bad type", func(l *License) { l.Type = "GOLD" }},
		{"bad status", func(l *License) { l.Status = "paused" }},
		{"zero device limit", func(l *License) { l.DeviceLimit = 0 }},
		{"missing expiry", func(l *License) { l.ExpiryDate = time.Time{} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := validLicense()
			tc.mutate(&l)
			assert.Error(t, validate.Struct(l))
		})
	}
}

func TestBoundDeviceValidation(t *testing.T) {
	d := BoundDevice{
		DeviceID: "HWID-0A1B2C3D-4E5F6071-8293A4B5-C6D7E8F9",
		Status:   "active",
	}
	assert.NoError(t, validate.Struct(d))

	d.Status = "banned"
	assert.Error(t, validate.Struct(d))
}

func TestCustomerValidation(t *testing.T) {
	c := Customer{
		ID:   uuid.NewString(),
		Name: "Ahmed Al-Rashid",
	}
	assert.NoError(t, validate.Struct(c))

	c.Name = ""
	assert.Error(t, validate.Struct(c))
}
