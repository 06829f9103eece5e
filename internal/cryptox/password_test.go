package cryptox

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap keeps the tests fast; the encoding does not depend on cost.
var cheap = Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt, cheap)
	key2 := DeriveKey(password, salt, cheap)
	if !bytes.Equal(key1, key2) {
		t.Fatalf("expected same result for same inputs, got %s and %s", hex.EncodeToString(key1), hex.EncodeToString(key2))
	}

	key3 := DeriveKey(password, []byte("other-salt"), cheap)
	if bytes.Equal(key1, key3) {
		t.Fatalf("expected different results for different salts")
	}
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	h := NewArgon2Hasher(cheap)

	encoded, err := h.Hash([]byte("hunter2"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"), encoded)

	ok, err := h.Verify([]byte("hunter2"), encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify([]byte("hunter3"), encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_SaltsDiffer(t *testing.T) {
	h := NewArgon2Hasher(cheap)

	a, err := h.Hash([]byte("same"))
	require.NoError(t, err)
	b, err := h.Hash([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestArgon2Hasher_VerifyUsesParamsFromHash(t *testing.T) {
	encoded, err := NewArgon2Hasher(cheap).Hash([]byte("pw"))
	require.NoError(t, err)

	// A hasher configured differently still verifies older hashes.
	ok, err := NewArgon2Hasher(DefaultParams).Verify([]byte("pw"), encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2Hasher_VerifyMalformed(t *testing.T) {
	h := NewArgon2Hasher(cheap)
	bad := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	}
	for _, enc := range bad {
		ok, err := h.Verify([]byte("pw"), enc)
		assert.False(t, ok, enc)
		assert.True(t, errors.Is(err, ErrMalformedHash), "%q: %v", enc, err)
	}
}
