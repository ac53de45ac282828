package credentials

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"
)

const serviceName = "lazychart"

// ErrTokenNotFound is returned when no token is stored for a backend
var ErrTokenNotFound = errors.New("token not found in keyring")

// TokenReadError wraps a keyring failure other than a missing key
type TokenReadError struct {
	Err error
}

func (e *TokenReadError) Error() string {
	return fmt.Sprintf("failed to read token from keyring: %v", e.Err)
}

func (e *TokenReadError) Unwrap() error {
	return e.Err
}

// TokenStore keeps chart backend API tokens in the OS keyring, falling back
// to an encrypted file
type TokenStore struct {
	ring keyring.Keyring
}

// NewTokenStore opens the platform keyring
func NewTokenStore(configDir string) (*TokenStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backendsForPlatform(),
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &TokenStore{ring: ring}, nil
}

// NewTokenStoreWithRing wraps an already opened keyring
func NewTokenStoreWithRing(ring keyring.Keyring) *TokenStore {
	return &TokenStore{ring: ring}
}

func backendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

// Save stores the token for a backend URL and user. Empty tokens are ignored.
func (ts *TokenStore) Save(backendURL, user, token string) error {
	if token == "" {
		return nil
	}
	err := ts.ring.Set(keyring.Item{
		Key:         makeKey(backendURL, user),
		Data:        []byte(token),
		Label:       fmt.Sprintf("lazychart: %s@%s", user, backendURL),
		Description: "Chart backend API token for lazychart",
	})
	if err != nil {
		return fmt.Errorf("failed to save token to keyring: %w", err)
	}
	return nil
}

// Get retrieves the token for a backend URL and user
func (ts *TokenStore) Get(backendURL, user string) (string, error) {
	item, err := ts.ring.Get(makeKey(backendURL, user))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrTokenNotFound
		}
		return "", &TokenReadError{Err: err}
	}
	return string(item.Data), nil
}

// Delete removes a stored token
func (ts *TokenStore) Delete(backendURL, user string) error {
	err := ts.ring.Remove(makeKey(backendURL, user))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

func makeKey(backendURL, user string) string {
	return backendURL + "|" + user
}
