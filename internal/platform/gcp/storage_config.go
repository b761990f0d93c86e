package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/option"
)

// StorageMode selects where lesson videos are served from.
type StorageMode string

const (
	StorageModeGCS      StorageMode = "gcs"
	StorageModeEmulator StorageMode = "gcs_emulator"
)

// StorageConfigError reports a bad video storage setting by env key.
type StorageConfigError struct {
	Key    string
	Value  string
	Reason string
	Cause  error
}

func (e *StorageConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("%s=%q: %s", e.Key, e.Value, e.Reason)
}

func (e *StorageConfigError) Unwrap() error { return e.Cause }

// ParseStorageMode defaults to the emulator when only an emulator host is set.
func ParseStorageMode(raw, emulatorHost string) (StorageMode, error) {
	switch mode := StorageMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		if strings.TrimSpace(emulatorHost) != "" {
			return StorageModeEmulator, nil
		}
		return StorageModeGCS, nil
	case StorageModeGCS, StorageModeEmulator:
		return mode, nil
	default:
		return "", &StorageConfigError{
			Key:    "OBJECT_STORAGE_MODE",
			Value:  raw,
			Reason: fmt.Sprintf("want %q or %q", StorageModeGCS, StorageModeEmulator),
		}
	}
}

func emulatorBaseURL(mode StorageMode, host string) (string, error) {
	if mode != StorageModeEmulator {
		return "", nil
	}
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return "", &StorageConfigError{Key: "STORAGE_EMULATOR_HOST", Reason: "required in emulator mode"}
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &StorageConfigError{
			Key:    "STORAGE_EMULATOR_HOST",
			Value:  host,
			Reason: "want an absolute URL like http://fake-gcs:4443",
			Cause:  err,
		}
	}
	return host, nil
}

// credentialOptions accepts inline service account JSON or a key file path.
func credentialOptions(creds string) []option.ClientOption {
	switch creds = strings.TrimSpace(creds); {
	case creds == "":
		return nil
	case strings.HasPrefix(creds, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
}
