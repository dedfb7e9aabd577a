package secret

import (
	"fmt"
	"strings"
)

// SecretStore provides a pluggable interface for storing sensitive data
// such as database passwords.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// Resolve reads a secret reference of the form "env:NAME" or
// "keychain:KEY". An empty ref resolves to the empty string.
func Resolve(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	scheme, key, ok := strings.Cut(ref, ":")
	if !ok || key == "" {
		return "", fmt.Errorf("secret reference %q: want env:NAME or keychain:KEY", ref)
	}

	var store SecretStore
	switch scheme {
	case "env":
		store = NewEnvStore("")
	case "keychain":
		store = NewKeychainStore()
	default:
		return "", fmt.Errorf("secret reference %q: unknown store %q", ref, scheme)
	}

	value, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("resolve secret %s: %w", ref, err)
	}
	return string(value), nil
}
