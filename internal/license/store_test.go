package license

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gllauncher/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storeConfig(baseURL string) config.StoreConfig {
	return config.StoreConfig{
		Backend:      "http",
		BaseURL:      baseURL,
		Token:        "test-token",
		FetchTimeout: 5 * time.Second,
	}
}

func TestHTTPStoreSnapshot(t *testing.T) {
	var gotPath, gotAuth, gotUA string
	var gotCacheBuster bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		gotCacheBuster = r.URL.Query().Get("t") != ""

		json.NewEncoder(w).Encode(Snapshot{
			SystemInfo:  SystemInfo{Version: "1.0.0", TotalLicenses: 1},
			LicenseKeys: map[string]LicenseRecord{"GL-PRO-2026-AAAA-BBBB-CCCC": {LicenseKey: "GL-PRO-2026-AAAA-BBBB-CCCC"}},
		})
	}))
	defer server.Close()

	store := NewHTTPStore(storeConfig(server.URL), discardLogger())
	snapshot, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/database/licenses.json", gotPath)
	assert.True(t, gotCacheBuster, "snapshot URL must carry a cache buster")
	assert.Equal(t, "token test-token", gotAuth)
	assert.Equal(t, "GameloopLauncher-LicenseSystem/1.0", gotUA)
	assert.Len(t, snapshot.LicenseKeys, 1)
}

func TestHTTPStoreSnapshotErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		store := NewHTTPStore(storeConfig(server.URL), discardLogger())
		_, err := store.Snapshot(context.Background())
		assert.Error(t, err)
	})

	t.Run("unparsable payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer server.Close()

		store := NewHTTPStore(storeConfig(server.URL), discardLogger())
		_, err := store.Snapshot(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing license_keys", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"system_info":{}}`))
		}))
		defer server.Close()

		store := NewHTTPStore(storeConfig(server.URL), discardLogger())
		_, err := store.Snapshot(context.Background())
		assert.Error(t, err)
	})

	t.Run("server unreachable", func(t *testing.T) {
		store := NewHTTPStore(storeConfig("http://127.0.0.1:1"), discardLogger())
		_, err := store.Snapshot(context.Background())
		assert.Error(t, err)
	})
}

func TestHTTPStoreActivateDevice(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got activationRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/activate", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(activationResponse{Success: true})
		}))
		defer server.Close()

		store := NewHTTPStore(storeConfig(server.URL), discardLogger())
		err := store.ActivateDevice(context.Background(), "GL-PRO-2026-AAAA-BBBB-CCCC", "HWID-TEST", "my-pc")
		require.NoError(t, err)

		assert.NotEmpty(t, got.RequestID)
		assert.Equal(t, "GL-PRO-2026-AAAA-BBBB-CCCC", got.LicenseKey)
		assert.Equal(t, "HWID-TEST", got.DeviceID)
		assert.Equal(t, "my-pc", got.DeviceName)
	})

	t.Run("conflict becomes refusal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(activationResponse{Success: false, Error: "device limit reached"})
		}))
		defer server.Close()

		store := NewHTTPStore(storeConfig(server.URL), discardLogger())
		err := store.ActivateDevice(context.Background(), "GL-PRO-2026-AAAA-BBBB-CCCC", "HWID-TEST", "my-pc")

		var refused *ActivationRefusedError
		require.ErrorAs(t, err, &refused)
		assert.Equal(t, "device limit reached", refused.Reason)
	})

	t.Run("200 with success false becomes refusal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(activationResponse{Success: false, Message: "refused"})
		}))
		defer server.Close()

		store := NewHTTPStore(storeConfig(server.URL), discardLogger())
		err := store.ActivateDevice(context.Background(), "GL-PRO-2026-AAAA-BBBB-CCCC", "HWID-TEST", "my-pc")

		var refused *ActivationRefusedError
		require.ErrorAs(t, err, &refused)
		assert.Equal(t, "refused", refused.Reason)
	})

	t.Run("transport failure is not a refusal", func(t *testing.T) {
		store := NewHTTPStore(storeConfig("http://127.0.0.1:1"), discardLogger())
		err := store.ActivateDevice(context.Background(), "GL-PRO-2026-AAAA-BBBB-CCCC", "HWID-TEST", "my-pc")

		require.Error(t, err)
		var refused *ActivationRefusedError
		assert.False(t, errors.As(err, &refused))
	})
}

func TestDeviceName(t *testing.T) {
	assert.NotEmpty(t, DeviceName())
}
