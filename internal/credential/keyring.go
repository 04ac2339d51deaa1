package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "jobportal"

// Keys stored in the keyring.
const (
	TokenKey        = "token"
	MailPasswordKey = "mail-password"
)

// TokenEnv overrides the stored token when set.
const TokenEnv = "JOBPORTAL_TOKEN"

// ErrNotFound is returned when a key has never been stored.
var ErrNotFound = keyring.ErrKeyNotFound

// openKeyring is a variable so tests can swap in an in-memory ring.
var openKeyring = func() (keyring.Keyring, error) {
	dir := "~/.config/jobportal/credentials"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "jobportal", "credentials")
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("jobportal-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Label: serviceName + " " + key,
		Data:  []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential. A missing key is not an error.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Token returns the bearer token, preferring the environment.
// An unset token yields "" with no error.
func Token() (string, error) {
	if v := strings.TrimSpace(os.Getenv(TokenEnv)); v != "" {
		return v, nil
	}
	tok, err := Get(TokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return strings.TrimSpace(tok), err
}

// SetToken stores the bearer token.
func SetToken(token string) error {
	return Set(TokenKey, strings.TrimSpace(token))
}

// ClearToken forgets the stored token, used on sign-out and auth expiry.
func ClearToken() error {
	return Delete(TokenKey)
}

// MailPassword returns the IMAP password, or "" when none is stored.
func MailPassword() (string, error) {
	pw, err := Get(MailPasswordKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return pw, err
}
