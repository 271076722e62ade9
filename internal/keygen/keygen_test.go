package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gllauncher/internal/license"
)

func TestGenerateProducesVerifiableKeys(t *testing.T) {
	for _, tier := range license.Tiers {
		t.Run(tier, func(t *testing.T) {
			key, err := Generate(tier, 2026)
			require.NoError(t, err)

			parts := strings.Split(key, "-")
			require.Len(t, parts, 6)
			assert.Equal(t, "GL", parts[0])
			assert.Equal(t, tier, parts[1])
			assert.Equal(t, "2026", parts[2])
			for _, p := range parts[3:] {
				assert.Len(t, p, 4)
			}

			assert.True(t, license.IsValidKeyFormat(key))
			assert.True(t, Verify(key))
		})
	}
}

func TestGenerateDefaultsYear(t *testing.T) {
	key, err := Generate("pro", 0)
	require.NoError(t, err)
	assert.True(t, Verify(key))
}

func TestGenerateUnknownTier(t *testing.T) {
	_, err := Generate("GOLD", 2026)
	assert.Error(t, err)
}

func TestGenerateKeysAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := Generate(license.TierPro, 2026)
		require.NoError(t, err)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestVerifyRejectsTamperedChecksum(t *testing.T) {
	key, err := Generate(license.TierBasic, 2027)
	require.NoError(t, err)

	// The checksum segment is hex so ZZZZ can never be a match.
	idx := strings.LastIndex(key, "-")
	assert.False(t, Verify(key[:idx]+"-ZZZZ"))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	key, err := Generate(license.TierPro, 2026)
	require.NoError(t, err)

	tampered := strings.Replace(key, "PRO", "DEMO", 1)
	assert.False(t, Verify(tampered))
}

func TestVerifyRejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{
		"",
		"GL-PRO-2026",
		"GL-PRO-2026-AAAA-BBBB-CCCC-DDDD",
		"XX-PRO-2026-AAAA-BBBB-CCCC",
	} {
		assert.False(t, Verify(key), "key %q", key)
	}
}

func TestDefaultsForTier(t *testing.T) {
	testCases := []struct {
		tier         string
		durationDays int
		maxDevices   int
		feature      string
	}{
		{license.TierDemo, 7, 1, "basic_features"},
		{license.TierBasic, 30, 3, "pubg_auto_update"},
		{license.TierPro, 365, 5, "registry_tools"},
		{license.TierEnterprise, 365, 10, "bulk_operations"},
	}

	for _, tc := range testCases {
		t.Run(tc.tier, func(t *testing.T) {
			d, err := DefaultsForTier(tc.tier)
			require.NoError(t, err)
			assert.Equal(t, tc.durationDays, d.DurationDays)
			assert.Equal(t, tc.maxDevices, d.MaxDevices)
			assert.Contains(t, d.Features, tc.feature)
		})
	}
}

func TestDefaultsForTierCaseInsensitive(t *testing.T) {
	d, err := DefaultsForTier("enterprise")
	require.NoError(t, err)
	assert.Equal(t, 10, d.MaxDevices)
}

func TestDefaultsForTierUnknown(t *testing.T) {
	_, err := DefaultsForTier("GOLD")
	assert.Error(t, err)
}

func TestDefaultsForTierReturnsCopy(t *testing.T) {
	d1, err := DefaultsForTier(license.TierDemo)
	require.NoError(t, err)
	d1.Features[0] = "mutated"

	d2, err := DefaultsForTier(license.TierDemo)
	require.NoError(t, err)
	assert.Equal(t, "basic_features", d2.Features[0])
}
