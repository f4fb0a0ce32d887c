package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	defaultCredentialsFile = "homer-calendar-access-creds.json"
	defaultUserAgent       = "KitchenDashboard/1.0"
	defaultRefreshSchedule = "@every 10m"

	calendarProviderGoogle = "google"
	calendarProviderICS    = "ics"
)

type apiConfig struct {
	port            string
	devMode         bool
	logger          *slog.Logger
	httpClient      *http.Client
	cache           Cache
	timezone        string
	unit            TemperatureUnit
	refreshSchedule string
	now             func() time.Time

	weather    weatherFetcher
	calendar   calendarFetcher
	geocoder   ReverseGeocoder
	positioner *ReportedPositioner
	dashboard  *Dashboard
}

// settings resolves configuration keys from the environment first, then from
// the optional YAML file.
type settings struct {
	file   map[string]string
	logger *slog.Logger
}

func (s settings) lookup(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	val, ok := s.file[key]
	return val, ok
}

// getEnv retrieves a setting by key, with a fallback value.
func (s settings) getEnv(key, fallback string) string {
	if val, ok := s.lookup(key); ok && val != "" {
		return val
	}
	s.logger.Info("setting not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsFloat retrieves a setting as a float64, with a fallback value.
func (s settings) getEnvAsFloat(key string, fallback float64) float64 {
	valStr, ok := s.lookup(key)
	if !ok || valStr == "" {
		s.logger.Info("setting not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		s.logger.Warn("invalid number for setting, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getEnvAsInt retrieves a setting as an integer, with a fallback value.
func (s settings) getEnvAsInt(key string, fallback int) int {
	valStr, ok := s.lookup(key)
	if !ok || valStr == "" {
		s.logger.Info("setting not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		s.logger.Warn("invalid integer value for setting, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// loadSettingsFile reads a flat YAML mapping. Keys are matched to environment
// variable names case-insensitively, so `dashboard_timezone: Europe/Warsaw`
// sets DASHBOARD_TIMEZONE. A missing path yields an empty overlay.
func loadSettingsFile(path string) (map[string]string, error) {
	out := map[string]string{}
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Key: "CONFIG_FILE", Reason: fmt.Sprintf("invalid YAML in %s: %v", path, err)}
	}
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func newLogger(devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// newAPIConfig builds the service graph from the environment. Missing calendar
// credentials are not an error here; they surface when the calendar is read.
func newAPIConfig(ctx context.Context) (*apiConfig, error) {
	devMode, err := strconv.ParseBool(os.Getenv("DEV_MODE"))
	if err != nil {
		devMode = false
	}
	logger := newLogger(devMode)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	file, err := loadSettingsFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	s := settings{file: file, logger: logger}

	unit, err := parseTemperatureUnit(s.getEnv("DASHBOARD_UNIT", string(UnitCelsius)))
	if err != nil {
		return nil, &ConfigError{Key: "DASHBOARD_UNIT", Reason: err.Error()}
	}
	timezone := s.getEnv("DASHBOARD_TIMEZONE", "UTC")
	if _, err := loadTimezone(timezone); err != nil {
		return nil, &ConfigError{Key: "DASHBOARD_TIMEZONE", Reason: err.Error()}
	}

	cache, err := newCache(ctx, s.getEnv("REDIS_URL", ""), logger)
	if err != nil {
		return nil, err
	}

	cfg := &apiConfig{
		port:    s.getEnv("PORT", "8080"),
		devMode: devMode,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: time.Duration(s.getEnvAsInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		cache:           cache,
		timezone:        timezone,
		unit:            unit,
		refreshSchedule: s.getEnv("REFRESH_SCHEDULE", defaultRefreshSchedule),
		now:             time.Now,
	}

	labels := newDayLabeler(s.getEnv("LOCALE", "en-US"))

	weather := NewWeatherService(
		s.getEnv("OMETEO_WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
		cfg.httpClient, cache, labels, logger,
	)
	geocoder := NewNominatimGeocoder(
		s.getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/reverse"),
		s.getEnv("NOMINATIM_USER_AGENT", defaultUserAgent),
		cfg.httpClient, cache, logger,
	)
	ipLocator := NewIPAPILocator(s.getEnv("IP_GEOLOCATION_URL", "https://ipapi.co/json/"), cfg.httpClient)

	provider, err := newCalendarProvider(s, cfg.httpClient, logger)
	if err != nil {
		return nil, err
	}

	cfg.weather = weather
	cfg.geocoder = geocoder
	cfg.calendar = NewCalendarService(provider, cfg.now, labels, logger)
	cfg.positioner = NewReportedPositioner(cfg.now)

	fallback := Location{
		Latitude:  s.getEnvAsFloat("DEFAULT_LATITUDE", 37.7749),
		Longitude: s.getEnvAsFloat("DEFAULT_LONGITUDE", -122.4194),
		City:      s.getEnv("DEFAULT_CITY", "San Francisco"),
		Country:   s.getEnv("DEFAULT_COUNTRY", "USA"),
	}
	resolver := NewLocationResolver(cfg.positioner, geocoder, ipLocator, fallback, logger)
	cfg.dashboard = NewDashboard(cfg.weather, cfg.calendar, resolver, timezone, unit, cfg.now, logger)

	return cfg, nil
}

// newCache connects to Redis when a URL is configured and falls back to an
// in-process cache otherwise.
func newCache(ctx context.Context, redisURL string, logger *slog.Logger) (Cache, error) {
	if redisURL == "" {
		logger.Info("REDIS_URL not set, using in-memory cache")
		return NewMemoryCache(weatherCacheTTL, 10*time.Minute), nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &ConfigError{Key: "REDIS_URL", Reason: err.Error()}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}
	return NewRedisCache(client), nil
}

func newCalendarProvider(s settings, httpClient *http.Client, logger *slog.Logger) (CalendarProvider, error) {
	switch kind := s.getEnv("CALENDAR_PROVIDER", calendarProviderGoogle); kind {
	case calendarProviderGoogle:
		loader := newCredentialLoader(defaultCredentialsFile)
		return NewGoogleCalendarProvider(s.getEnv(envCalendarID, ""), loader), nil
	case calendarProviderICS:
		return NewICSProvider(s.getEnv("CALENDAR_ICS_URL", ""), httpClient, logger), nil
	default:
		return nil, &ConfigError{Key: "CALENDAR_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", kind)}
	}
}
