package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	envServiceAccountJSON = "GOOGLE_SERVICE_ACCOUNT_JSON"
	envCredentialsFile    = "GOOGLE_CREDENTIALS_FILE"
	envCalendarID         = "GOOGLE_CALENDAR_ID"
)

// credentialLoader reads the service-account key on every call so that a key
// rotated in the environment or on disk takes effect without a restart.
type credentialLoader struct {
	// lookupEnv is os.LookupEnv outside tests.
	lookupEnv func(string) (string, bool)
	readFile  func(string) ([]byte, error)
	// defaultFile is used when GOOGLE_CREDENTIALS_FILE is unset.
	defaultFile string
}

func newCredentialLoader(defaultFile string) credentialLoader {
	return credentialLoader{
		lookupEnv:   os.LookupEnv,
		readFile:    os.ReadFile,
		defaultFile: defaultFile,
	}
}

type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// load returns the raw key JSON. The inline environment variable wins over the
// file. Each failure mode gets its own *AuthError reason.
func (l credentialLoader) load() ([]byte, error) {
	raw, source, err := l.read()
	if err != nil {
		return nil, err
	}

	var key serviceAccountKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, &AuthError{Reason: "calendar credentials are not valid JSON", Err: fmt.Errorf("%s: %w", source, err)}
	}
	var missing []string
	if key.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if key.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return nil, &AuthError{Reason: "calendar credentials are incomplete", Err: fmt.Errorf("%s: missing %s", source, strings.Join(missing, ", "))}
	}
	return raw, nil
}

func (l credentialLoader) read() ([]byte, string, error) {
	if v, ok := l.lookupEnv(envServiceAccountJSON); ok && strings.TrimSpace(v) != "" {
		return []byte(v), envServiceAccountJSON, nil
	}

	path := l.defaultFile
	if v, ok := l.lookupEnv(envCredentialsFile); ok && v != "" {
		path = v
	}
	if path == "" {
		return nil, "", notConfigured()
	}

	raw, err := l.readFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", notConfigured()
	}
	if err != nil {
		return nil, "", &AuthError{Reason: "calendar credentials file unreadable", Err: err}
	}
	return raw, path, nil
}

func notConfigured() error {
	return &AuthError{
		Reason: "calendar credentials not configured",
		Err:    &ConfigError{Key: envServiceAccountJSON, Reason: "not set and no credentials file found"},
	}
}
