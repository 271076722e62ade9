// Package keygen generates and verifies GameLoop license keys. Keys
// follow the GL-TYPE-YEAR-AAAA-BBBB-CKSM layout where the final
// segment is a checksum over the rest of the key, so admin tooling can
// catch typos before hitting the license database.
package keygen

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gllauncher/internal/license"
)

const (
	randomPartLength = 4
	checksumLength   = 4
	upperAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// TierDefaults holds the issuing defaults applied when the operator
// does not specify an explicit duration or device limit.
type TierDefaults struct {
	DurationDays int
	MaxDevices   int
	Features     []string
}

var tierDefaults = map[string]TierDefaults{
	license.TierDemo: {
		DurationDays: 7,
		MaxDevices:   1,
		Features:     []string{"basic_features"},
	},
	license.TierBasic: {
		DurationDays: 30,
		MaxDevices:   3,
		Features:     []string{"pubg_auto_update", "gameloop_management"},
	},
	license.TierPro: {
		DurationDays: 365,
		MaxDevices:   5,
		Features: []string{
			"pubg_auto_update", "gameloop_management",
			"registry_tools", "advanced_settings",
		},
	},
	license.TierEnterprise: {
		DurationDays: 365,
		MaxDevices:   10,
		Features: []string{
			"pubg_auto_update", "gameloop_management",
			"registry_tools", "advanced_settings",
			"priority_support", "bulk_operations",
		},
	},
}

// DefaultsForTier returns the issuing defaults for a license tier.
func DefaultsForTier(tier string) (TierDefaults, error) {
	d, ok := tierDefaults[strings.ToUpper(tier)]
	if !ok {
		return TierDefaults{}, fmt.Errorf("unknown license tier %q", tier)
	}
	out := d
	out.Features = append([]string(nil), d.Features...)
	return out, nil
}

// Generate produces a new license key for the given tier. Year defaults
// to the current year when zero.
func Generate(tier string, year int) (string, error) {
	tier = strings.ToUpper(tier)
	if !license.ValidTier(tier) {
		return "", fmt.Errorf("unknown license tier %q", tier)
	}
	if year == 0 {
		year = time.Now().Year()
	}

	part1, err := randomPart()
	if err != nil {
		return "", err
	}
	part2, err := randomPart()
	if err != nil {
		return "", err
	}

	base := fmt.Sprintf("GL-%s-%d-%s-%s", tier, year, part1, part2)
	return base + "-" + checksum(base), nil
}

// Verify reports whether the key is well formed and its checksum
// segment matches the rest of the key.
func Verify(key string) bool {
	if !license.IsValidKeyFormat(key) {
		return false
	}
	idx := strings.LastIndex(key, "-")
	base, got := key[:idx], key[idx+1:]
	return got == checksum(base)
}

// checksum derives the trailing key segment from the base key. MD5 is
// used as a short non-cryptographic digest here; the key carries no
// secret and the server side remains the authority.
func checksum(base string) string {
	sum := md5.Sum([]byte(base))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:checksumLength]
}

func randomPart() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(upperAlphabet)))
	for i := 0; i < randomPartLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate key segment: %w", err)
		}
		b.WriteByte(upperAlphabet[n.Int64()])
	}
	return b.String(), nil
}
