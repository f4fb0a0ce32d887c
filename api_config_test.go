package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearHomerEnv blanks every setting newAPIConfig reads so the host
// environment cannot leak into a test.
func clearHomerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DEV_MODE", "CONFIG_FILE", "PORT", "REDIS_URL", "DASHBOARD_UNIT", "DASHBOARD_TIMEZONE",
		"CALENDAR_PROVIDER", "CALENDAR_ICS_URL", envCalendarID, "REFRESH_SCHEDULE", "LOCALE",
		"DEFAULT_LATITUDE", "DEFAULT_LONGITUDE", "DEFAULT_CITY", "DEFAULT_COUNTRY",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewAPIConfig(t *testing.T) {
	testCases := []struct {
		name    string
		setup   func(t *testing.T)
		check   func(t *testing.T, cfg *apiConfig)
		wantKey string
	}{
		{
			name:  "Defaults",
			setup: func(t *testing.T) {},
			check: func(t *testing.T, cfg *apiConfig) {
				assert.Equal(t, "8080", cfg.port)
				assert.False(t, cfg.devMode)
				assert.Equal(t, "UTC", cfg.timezone)
				assert.Equal(t, UnitCelsius, cfg.unit)
				assert.Equal(t, defaultRefreshSchedule, cfg.refreshSchedule)
				assert.IsType(t, &MemoryCache{}, cfg.cache)
				assert.NotNil(t, cfg.dashboard)
			},
		},
		{
			name: "Dev mode and overrides",
			setup: func(t *testing.T) {
				t.Setenv("DEV_MODE", "true")
				t.Setenv("PORT", "9090")
				t.Setenv("DASHBOARD_UNIT", "fahrenheit")
				t.Setenv("DASHBOARD_TIMEZONE", "America/Los_Angeles")
			},
			check: func(t *testing.T, cfg *apiConfig) {
				assert.True(t, cfg.devMode)
				assert.Equal(t, "9090", cfg.port)
				assert.Equal(t, UnitFahrenheit, cfg.unit)
				assert.Equal(t, UnitFahrenheit, cfg.dashboard.Unit())
			},
		},
		{
			name: "Invalid dev mode is treated as false",
			setup: func(t *testing.T) {
				t.Setenv("DEV_MODE", "not_a_bool")
			},
			check: func(t *testing.T, cfg *apiConfig) {
				assert.False(t, cfg.devMode)
			},
		},
		{
			name: "ICS provider",
			setup: func(t *testing.T) {
				t.Setenv("CALENDAR_PROVIDER", "ics")
				t.Setenv("CALENDAR_ICS_URL", "https://example.com/family.ics")
			},
			check: func(t *testing.T, cfg *apiConfig) {
				svc, ok := cfg.calendar.(*CalendarService)
				require.True(t, ok)
				assert.IsType(t, &ICSProvider{}, svc.provider)
			},
		},
		{
			name: "YAML file fills unset keys",
			setup: func(t *testing.T) {
				t.Setenv("CONFIG_FILE", writeConfigFile(t, "dashboard_timezone: Europe/Warsaw\nport: 7070\n"))
				t.Setenv("PORT", "6060")
			},
			check: func(t *testing.T, cfg *apiConfig) {
				assert.Equal(t, "Europe/Warsaw", cfg.timezone)
				assert.Equal(t, "6060", cfg.port, "environment wins over the file")
			},
		},
		{
			name:    "Unknown unit",
			setup:   func(t *testing.T) { t.Setenv("DASHBOARD_UNIT", "kelvin") },
			wantKey: "DASHBOARD_UNIT",
		},
		{
			name:    "Unknown timezone",
			setup:   func(t *testing.T) { t.Setenv("DASHBOARD_TIMEZONE", "Mars/Olympus_Mons") },
			wantKey: "DASHBOARD_TIMEZONE",
		},
		{
			name:    "Unknown calendar provider",
			setup:   func(t *testing.T) { t.Setenv("CALENDAR_PROVIDER", "outlook") },
			wantKey: "CALENDAR_PROVIDER",
		},
		{
			name:    "Malformed Redis URL",
			setup:   func(t *testing.T) { t.Setenv("REDIS_URL", "not-a-url://") },
			wantKey: "REDIS_URL",
		},
		{
			name:    "Invalid YAML",
			setup:   func(t *testing.T) { t.Setenv("CONFIG_FILE", writeConfigFile(t, "port: [unterminated")) },
			wantKey: "CONFIG_FILE",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearHomerEnv(t)
			tc.setup(t)

			cfg, err := newAPIConfig(context.Background())

			if tc.wantKey != "" {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tc.wantKey, cfgErr.Key)
				return
			}
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestSettings(t *testing.T) {
	s := settings{
		file: map[string]string{
			"HOMER_TEST_FILE_ONLY": "from-file",
			"HOMER_TEST_BOTH":      "from-file",
			"HOMER_TEST_FLOAT":     "51.1079",
			"HOMER_TEST_BAD_FLOAT": "north",
			"HOMER_TEST_INT":       "15",
		},
		logger: discardLogger(),
	}
	t.Setenv("HOMER_TEST_BOTH", "from-env")

	assert.Equal(t, "from-file", s.getEnv("HOMER_TEST_FILE_ONLY", "default"))
	assert.Equal(t, "from-env", s.getEnv("HOMER_TEST_BOTH", "default"))
	assert.Equal(t, "default", s.getEnv("HOMER_TEST_MISSING", "default"))
	assert.InDelta(t, 51.1079, s.getEnvAsFloat("HOMER_TEST_FLOAT", 0), 1e-9)
	assert.InDelta(t, -122.4194, s.getEnvAsFloat("HOMER_TEST_BAD_FLOAT", -122.4194), 1e-9)
	assert.Equal(t, 15, s.getEnvAsInt("HOMER_TEST_INT", 10))
	assert.Equal(t, 10, s.getEnvAsInt("HOMER_TEST_MISSING", 10))
}

func TestLoadSettingsFile(t *testing.T) {
	t.Run("Empty path", func(t *testing.T) {
		got, err := loadSettingsFile("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Missing file", func(t *testing.T) {
		got, err := loadSettingsFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Scalars are stringified and keys upper-cased", func(t *testing.T) {
		path := writeConfigFile(t, "default_latitude: 51.1079\ndev_mode: true\nlocale: de-DE\nredis_url:\n")
		got, err := loadSettingsFile(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"DEFAULT_LATITUDE": "51.1079",
			"DEV_MODE":         "true",
			"LOCALE":           "de-DE",
		}, got)
	})
}
