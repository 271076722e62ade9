package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
)

// ErrorDeviceID is returned when every hardware read fails. It is
// well-formed so downstream code never sees a malformed id, but it is
// diagnostic: all machines in this state share it.
const ErrorDeviceID = "HWID-ERROR-ERROR-ERROR-ERROR"

// oemPlaceholder is the value some vendors ship instead of a real
// serial; it must be treated as absent or every such machine would
// share fingerprint components.
const oemPlaceholder = "To Be Filled By O.E.M."

const componentSeparator = "|"

// hardwareField is one fingerprint component: a reader plus the fixed
// sentinel that stands in when the read fails or yields nothing usable.
type hardwareField struct {
	name     string
	sentinel string
	read     func() (string, error)
}

// Fingerprinter derives the stable device identity from a fixed ordered
// set of hardware identifiers plus a configured salt. The result is
// computed once and cached for the process lifetime; DeviceID never
// fails outward.
type Fingerprinter struct {
	salt   string
	fields []hardwareField
	logger *slog.Logger

	mu     sync.RWMutex
	cached string
}

// NewFingerprinter creates a fingerprinter with the standard hardware
// field set. The salt comes from configuration, never a source literal.
func NewFingerprinter(salt string, logger *slog.Logger) *Fingerprinter {
	return &Fingerprinter{
		salt:   salt,
		logger: logger.With(slog.String("component", "security.fingerprint")),
		fields: []hardwareField{
			{name: "motherboard", sentinel: "UNKNOWN-MB", read: readBoardSerial},
			{name: "cpu", sentinel: "UNKNOWN-CPU", read: readProcessorID},
			{name: "disk", sentinel: "UNKNOWN-DISK", read: readDiskSerial},
			{name: "mac", sentinel: "UNKNOWN-MAC", read: readPrimaryMAC},
			{name: "os_install", sentinel: "UNKNOWN-OS", read: readOSInstallID},
		},
	}
}

// DeviceID returns the stable device identifier, shaped
// HWID-XXXXXXXX-XXXXXXXX-XXXXXXXX-XXXXXXXX. Identical hardware plus an
// identical salt always yields an identical id. Each hardware read is
// independently fault-tolerant: a failed or placeholder value is
// replaced by its sentinel so the hash stays well-defined. Callers never
// receive an error; total failure yields ErrorDeviceID plus an error
// log.
func (f *Fingerprinter) DeviceID() string {
	f.mu.RLock()
	if f.cached != "" {
		id := f.cached
		f.mu.RUnlock()
		return id
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != "" {
		return f.cached
	}

	f.cached = f.derive()
	return f.cached
}

func (f *Fingerprinter) derive() string {
	components := make([]string, 0, len(f.fields))
	failures := 0

	for _, field := range f.fields {
		value, err := field.read()
		value = strings.TrimSpace(value)
		if err != nil || value == "" || value == oemPlaceholder {
			if err != nil {
				f.logger.Debug("hardware read failed, using sentinel",
					slog.String("field", field.name),
					slog.String("error", err.Error()),
				)
			} else {
				f.logger.Debug("hardware read empty or placeholder, using sentinel",
					slog.String("field", field.name),
				)
			}
			value = field.sentinel
			failures++
		}
		components = append(components, value)
	}

	if failures == len(f.fields) {
		f.logger.Error("all hardware reads failed, returning diagnostic device id",
			slog.String("device_id", ErrorDeviceID))
		return ErrorDeviceID
	}

	combined := strings.Join(components, componentSeparator) + f.salt
	sum := sha256.Sum256([]byte(combined))
	digest := hex.EncodeToString(sum[:])

	id := fmt.Sprintf("HWID-%s-%s-%s-%s",
		digest[0:8], digest[8:16], digest[16:24], digest[24:32])

	f.logger.Info("device id derived",
		slog.String("device_id", id),
		slog.Int("sentinel_fields", failures),
	)
	return id
}

// Components returns the raw (pre-hash) component values for debugging.
// Sentinels appear in place of unreadable fields.
func (f *Fingerprinter) Components() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		value, err := field.read()
		value = strings.TrimSpace(value)
		if err != nil || value == "" || value == oemPlaceholder {
			value = field.sentinel
		}
		out[field.name] = value
	}
	return out
}

// ClearCache drops the cached device id; the next DeviceID call
// re-derives it.
func (f *Fingerprinter) ClearCache() {
	f.mu.Lock()
	f.cached = ""
	f.mu.Unlock()
}

// readBoardSerial reads the motherboard serial number.
func readBoardSerial() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return readFirstFile(
			"/sys/class/dmi/id/board_serial",
			"/sys/class/dmi/id/product_serial",
		)
	case "windows":
		// The baseboard serial needs WMI; the installer records it in
		// the environment for the launcher process.
		if v := os.Getenv("GL_BOARD_SERIAL"); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("board serial unavailable on windows")
	default:
		return "", fmt.Errorf("board serial unavailable on %s", runtime.GOOS)
	}
}

// readProcessorID reads a stable processor identifier.
func readProcessorID() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if procID := os.Getenv("PROCESSOR_IDENTIFIER"); procID != "" {
			return procID, nil
		}
		return "", fmt.Errorf("PROCESSOR_IDENTIFIER not set")
	case "linux":
		data, err := os.ReadFile("/proc/cpuinfo")
		if err != nil {
			return "", fmt.Errorf("failed to read cpuinfo: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "model name") {
				if _, value, ok := strings.Cut(line, ":"); ok {
					return strings.TrimSpace(value), nil
				}
			}
		}
		return "", fmt.Errorf("no model name in cpuinfo")
	default:
		return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH), nil
	}
}

// readDiskSerial reads the primary disk serial number.
func readDiskSerial() (string, error) {
	if runtime.GOOS != "linux" {
		return "", fmt.Errorf("disk serial unavailable on %s", runtime.GOOS)
	}
	return readFirstFile(
		"/sys/block/sda/device/serial",
		"/sys/block/nvme0n1/device/serial",
		"/sys/block/vda/serial",
	)
}

// readPrimaryMAC returns the MAC address of the first up, non-loopback
// interface, falling back to any interface with a hardware address.
func readPrimaryMAC() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to list network interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if mac := iface.HardwareAddr.String(); mac != "" && mac != "00:00:00:00:00:00" {
			return mac, nil
		}
	}

	for _, iface := range interfaces {
		if mac := iface.HardwareAddr.String(); mac != "" && mac != "00:00:00:00:00:00" {
			return mac, nil
		}
	}

	return "", fmt.Errorf("no usable MAC address found")
}

// readOSInstallID reads the OS installation identifier.
func readOSInstallID() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return readFirstFile("/etc/machine-id", "/var/lib/dbus/machine-id")
	case "darwin":
		return readFirstFile("/etc/machine-id")
	default:
		return "", fmt.Errorf("os install id unavailable on %s", runtime.GOOS)
	}
}

func readFirstFile(paths ...string) (string, error) {
	var lastErr error
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			return value, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate file had content")
	}
	return "", lastErr
}
