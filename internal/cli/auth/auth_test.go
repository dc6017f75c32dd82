package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStore_Lifecycle(t *testing.T) {
	keyring.MockInit()

	store := NewKeyringStore("https://cms.example.com/api")

	token, err := store.Get()
	require.NoError(t, err)
	require.Empty(t, token, "no token before login")

	require.NoError(t, store.Set("tok-1"))
	token, err = store.Get()
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is not an error")

	token, err = store.Get()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestKeyringStore_ScopedPerServer(t *testing.T) {
	keyring.MockInit()

	a := NewKeyringStore("https://a.example.com/api")
	b := NewKeyringStore("https://b.example.com/api")

	require.NoError(t, a.Set("token-a"))

	token, err := b.Get()
	require.NoError(t, err)
	require.Empty(t, token)

	// Same host, different scheme or path, is a different server
	for _, other := range []string{"http://a.example.com/api", "https://a.example.com/staging/api"} {
		token, err := NewKeyringStore(other).Get()
		require.NoError(t, err)
		require.Empty(t, token, other)
	}

	token, err = NewKeyringStore("https://A.example.com/api/").Get()
	require.NoError(t, err)
	require.Equal(t, "token-a", token)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Set("abc"))
	token, _ := store.Get()
	require.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	token, _ = store.Get()
	require.Empty(t, token)
}
