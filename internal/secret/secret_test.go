package secret_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbedit/internal/secret"
)

func TestEnvStore_PrefixedKeys(t *testing.T) {
	t.Setenv("KBEDIT_DB", "")
	store := secret.NewEnvStore("KBEDIT_")

	require.NoError(t, store.Set("db", []byte("hunter2")))
	got, err := store.Get("db")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(got))

	require.NoError(t, store.Delete("db"))
	got, err = store.Get("db")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolve(t *testing.T) {
	t.Setenv("KB_TEST_PASSWORD", "s3cret")

	v, err := secret.Resolve("env:KB_TEST_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	v, err = secret.Resolve("")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = secret.Resolve("KB_TEST_PASSWORD")
	assert.Error(t, err)
	_, err = secret.Resolve("vault:db")
	assert.Error(t, err)
}
