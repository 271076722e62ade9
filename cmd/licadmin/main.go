// licadmin is the operator tool for the license database: it issues,
// revokes, and extends licenses, blacklists devices, publishes the
// launcher snapshot, and exports the database to Excel.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gllauncher/internal/keygen"
	"gllauncher/internal/license"
	"gllauncher/internal/store"
)

const usage = `Usage: licadmin [flags] <command> [args]

Commands:
  create      -tier TIER -owner NAME -email EMAIL [-days N] [-devices N]
  revoke      -key KEY [-reason TEXT]
  extend      -key KEY -days N
  blacklist   -device HWID [-reason TEXT]
  deactivate  -key KEY -device HWID
  info        -key KEY
  list
  publish     -out FILE
  export      -out FILE
  verify      -key KEY

Flags:
  -db PATH        license database file (default licenses.json)
  -passphrase P   signing passphrase (default $GL_DB_PASSPHRASE)
`

func main() {
	dbPath := flag.String("db", "licenses.json", "license database file")
	passphrase := flag.String("passphrase", os.Getenv("GL_DB_PASSPHRASE"), "database signing passphrase")
	tier := flag.String("tier", "", "license tier (DEMO, BASIC, PRO, ENTERPRISE)")
	owner := flag.String("owner", "", "owner name")
	email := flag.String("email", "", "owner email")
	days := flag.Int("days", 0, "duration or extension in days")
	devices := flag.Int("devices", 0, "device limit")
	key := flag.String("key", "", "license key")
	device := flag.String("device", "", "device hardware id")
	reason := flag.String("reason", "", "revoke or blacklist reason")
	out := flag.String("out", "", "output file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// verify needs no database.
	if command == "verify" {
		requireFlag(*key, "-key")
		if keygen.Verify(*key) {
			fmt.Printf("OK: %s\n", license.MaskKey(*key))
			return
		}
		fmt.Printf("INVALID: %s\n", license.MaskKey(*key))
		os.Exit(1)
	}

	db, err := store.Open(*dbPath, store.NewSigner(*passphrase), logger)
	if err != nil {
		fatal(err)
	}

	switch command {
	case "create":
		requireFlag(*tier, "-tier")
		created, err := db.Create(store.CreateOptions{
			Tier:         *tier,
			OwnerName:    *owner,
			OwnerEmail:   *email,
			DurationDays: *days,
			MaxDevices:   *devices,
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("License created: %s\n", created)

	case "revoke":
		requireFlag(*key, "-key")
		if err := db.Revoke(*key, *reason); err != nil {
			fatal(err)
		}
		fmt.Printf("License revoked: %s\n", license.MaskKey(*key))

	case "extend":
		requireFlag(*key, "-key")
		if *days <= 0 {
			fatal(fmt.Errorf("-days must be positive"))
		}
		if err := db.Extend(*key, *days); err != nil {
			fatal(err)
		}
		fmt.Printf("License extended by %d days: %s\n", *days, license.MaskKey(*key))

	case "blacklist":
		requireFlag(*device, "-device")
		if err := db.BlacklistDevice(*device, *reason); err != nil {
			fatal(err)
		}
		fmt.Printf("Device blacklisted: %s\n", *device)

	case "deactivate":
		requireFlag(*key, "-key")
		requireFlag(*device, "-device")
		if err := db.DeactivateDevice(*key, *device); err != nil {
			fatal(err)
		}
		fmt.Printf("Device deactivated: %s\n", *device)

	case "info":
		requireFlag(*key, "-key")
		rec, revoked, err := db.Get(*key)
		if err != nil {
			fatal(err)
		}
		if revoked {
			fmt.Printf("License %s is REVOKED\n", license.MaskKey(*key))
			return
		}
		printRecord(rec)

	case "list":
		records := db.List()
		fmt.Printf("Active licenses: %d\n\n", len(records))
		for _, rec := range records {
			printRecord(rec)
			fmt.Println()
		}

	case "publish":
		requireFlag(*out, "-out")
		if err := db.WriteSnapshot(*out); err != nil {
			fatal(err)
		}
		fmt.Printf("Snapshot published: %s\n", *out)

	case "export":
		requireFlag(*out, "-out")
		if err := db.ExportXLSX(*out); err != nil {
			fatal(err)
		}
		fmt.Printf("Workbook written: %s\n", *out)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printRecord(rec *store.Record) {
	fmt.Printf("Key:      %s\n", rec.LicenseKey)
	fmt.Printf("Type:     %s\n", strings.ToUpper(rec.LicenseType))
	fmt.Printf("Status:   %s\n", rec.Status)
	fmt.Printf("Owner:    %s <%s>\n", rec.OwnerInfo.Name, rec.OwnerInfo.Email)
	fmt.Printf("Expires:  %s\n", rec.ExpiryDate)
	fmt.Printf("Devices:  %d/%d\n", rec.CurrentDevices, rec.MaxDevices)
	fmt.Printf("Features: %s\n", strings.Join(rec.FeaturesEnabled, ", "))
	if expiry, err := time.Parse(time.RFC3339, rec.ExpiryDate); err == nil {
		daysLeft := int(time.Until(expiry).Hours() / 24)
		fmt.Printf("Days left: %d\n", daysLeft)
	}
}

func requireFlag(value, name string) {
	if value == "" {
		fatal(fmt.Errorf("%s is required", name))
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "licadmin: %v\n", err)
	os.Exit(1)
}
