package license

import (
	"strconv"
	"strings"
)

// License key layout: GL-<TIER>-<YEAR>-<AAAA>-<BBBB>-<CKSM>. The three
// trailing segments are opaque four-character fields; only the admin
// tooling verifies the checksum, this validator checks shape only.
const (
	keyTag        = "GL"
	keySegments   = 6
	keyPartLength = 4
	keyYearMin    = 2025
	keyYearMax    = 2030
)

// License tiers, as they appear in the second key segment.
const (
	TierDemo       = "DEMO"
	TierBasic      = "BASIC"
	TierPro        = "PRO"
	TierEnterprise = "ENTERPRISE"
)

// Tiers lists the closed set of valid license tiers.
var Tiers = []string{TierDemo, TierBasic, TierPro, TierEnterprise}

// ValidTier reports whether tier is a member of the closed tier set.
func ValidTier(tier string) bool {
	for _, t := range Tiers {
		if tier == t {
			return true
		}
	}
	return false
}

// IsValidKeyFormat validates the lexical shape of a license key. It is
// pure and performs no I/O; passing it says nothing about the key being
// present in the remote store. Rules are checked in order and the first
// failure wins:
//
//	1. splitting on "-" yields exactly 6 segments
//	2. segment 0 equals the fixed "GL" tag
//	3. segment 1 is a valid tier
//	4. segment 2 parses as a year in [2025, 2030]
//	5. segments 3-5 are exactly 4 characters each (total key length is
//	   therefore fixed for a given tier)
func IsValidKeyFormat(key string) bool {
	if key == "" {
		return false
	}

	parts := strings.Split(key, "-")
	if len(parts) != keySegments {
		return false
	}

	if parts[0] != keyTag {
		return false
	}

	if !ValidTier(parts[1]) {
		return false
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) != 4 || year < keyYearMin || year > keyYearMax {
		return false
	}

	for _, part := range parts[3:] {
		if len(part) != keyPartLength {
			return false
		}
	}

	return true
}

// KeyTier extracts the tier segment from a well-formed key. It returns
// the empty string when the key does not pass the format check.
func KeyTier(key string) string {
	if !IsValidKeyFormat(key) {
		return ""
	}
	return strings.Split(key, "-")[1]
}

// MaskKey obscures the middle of a license key for logging.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
