package secret

import (
	"fmt"
	"os"
	"strings"
)

// EnvStore implements SecretStore over process environment variables.
// Keys are upper-cased and prefixed, so "db" with prefix "KBEDIT_" reads
// KBEDIT_DB.
type EnvStore struct {
	prefix string
}

// NewEnvStore creates an EnvStore. An empty prefix uses keys verbatim.
func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{prefix: prefix}
}

func (e *EnvStore) name(key string) string {
	if e.prefix == "" {
		return key
	}
	return e.prefix + strings.ToUpper(key)
}

func (e *EnvStore) Set(key string, value []byte) error {
	if err := os.Setenv(e.name(key), string(value)); err != nil {
		return fmt.Errorf("env set: %w", err)
	}
	return nil
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(e.name(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (e *EnvStore) Delete(key string) error {
	return os.Unsetenv(e.name(key))
}
