package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidKeyFormat(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		valid bool
	}{
		{name: "valid pro key", key: "GL-PRO-2026-AAAA-BBBB-CCCC", valid: true},
		{name: "valid demo key", key: "GL-DEMO-2025-QQQQ-RRRR-SSSS", valid: true},
		{name: "valid basic key", key: "GL-BASIC-2025-AAAA-BBBB-CCCC", valid: true},
		{name: "valid enterprise key", key: "GL-ENTERPRISE-2030-AAAA-BBBB-CCCC", valid: true},
		{name: "empty key", key: "", valid: false},
		{name: "too few segments", key: "GL-PRO-2026-AAAA-BBBB", valid: false},
		{name: "too many segments", key: "GL-PRO-2026-AAAA-BBBB-CCCC-DDDD", valid: false},
		{name: "wrong tag", key: "XX-PRO-2026-AAAA-BBBB-CCCC", valid: false},
		{name: "lowercase tag", key: "gl-PRO-2026-AAAA-BBBB-CCCC", valid: false},
		{name: "unknown tier", key: "GL-GOLD-2026-AAAA-BBBB-CCCC", valid: false},
		{name: "lowercase tier", key: "GL-pro-2026-AAAA-BBBB-CCCC", valid: false},
		{name: "year below range", key: "GL-PRO-2024-AAAA-BBBB-CCCC", valid: false},
		{name: "year above range", key: "GL-PRO-2031-AAAA-BBBB-CCCC", valid: false},
		{name: "year lower bound", key: "GL-PRO-2025-AAAA-BBBB-CCCC", valid: true},
		{name: "year upper bound", key: "GL-PRO-2030-AAAA-BBBB-CCCC", valid: true},
		{name: "non-numeric year", key: "GL-PRO-20XX-AAAA-BBBB-CCCC", valid: false},
		{name: "short segment", key: "GL-PRO-2026-AAA-BBBB-CCCC", valid: false},
		{name: "long segment", key: "GL-PRO-2026-AAAAA-BBBB-CCCC", valid: false},
		{name: "short checksum", key: "GL-PRO-2026-AAAA-BBBB-CCC", valid: false},
		{name: "whitespace", key: " GL-PRO-2026-AAAA-BBBB-CCCC", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, IsValidKeyFormat(tc.key))
		})
	}
}

func TestKeyTier(t *testing.T) {
	assert.Equal(t, TierPro, KeyTier("GL-PRO-2026-AAAA-BBBB-CCCC"))
	assert.Equal(t, TierEnterprise, KeyTier("GL-ENTERPRISE-2026-AAAA-BBBB-CCCC"))
	assert.Equal(t, "", KeyTier("GL-GOLD-2026-AAAA-BBBB-CCCC"))
	assert.Equal(t, "", KeyTier(""))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "GL-P****CCCC", MaskKey("GL-PRO-2026-AAAA-BBBB-CCCC"))
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "****", MaskKey(""))
}

func TestValidTier(t *testing.T) {
	for _, tier := range Tiers {
		assert.True(t, ValidTier(tier))
	}
	assert.False(t, ValidTier("GOLD"))
	assert.False(t, ValidTier("pro"))
}
