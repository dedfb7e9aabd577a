package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultKeychainService is the keychain service name kbedit secrets are
// filed under.
const DefaultKeychainService = "kbedit"

// exit status of `security` when no item matches
const keychainNotFound = 44

// KeychainStore implements SecretStore using the macOS Keychain
// via the `security` CLI tool. Keys are keychain account names.
type KeychainStore struct {
	service string
}

// NewKeychainStore creates a KeychainStore under DefaultKeychainService.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: DefaultKeychainService}
}

// Set stores a secret, replacing an existing value for key.
func (k *KeychainStore) Set(key string, value []byte) error {
	_, err := k.security("add-generic-password", "-a", key, "-w", string(value), "-U")
	if err != nil {
		return fmt.Errorf("keychain set %s: %w", key, err)
	}
	return nil
}

// Get returns nil and no error when key has no entry.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := k.security("find-generic-password", "-a", key, "-w")
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keychain get %s: %w", key, err)
	}
	return []byte(strings.TrimSpace(out)), nil
}

// Delete removes key. Deleting a missing key is not an error.
func (k *KeychainStore) Delete(key string) error {
	_, err := k.security("delete-generic-password", "-a", key)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("keychain delete %s: %w", key, err)
	}
	return nil
}

func (k *KeychainStore) security(verb string, args ...string) (string, error) {
	args = append([]string{verb, "-s", k.service}, args...)
	var stderr strings.Builder
	cmd := exec.Command("security", args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w", msg, err)
		}
		return "", err
	}
	return string(out), nil
}

func isNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == keychainNotFound
}
