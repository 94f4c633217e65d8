package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, a, SaltSize)
	assert.False(t, bytes.Equal(a, b), "две соли не должны совпадать")
}

func TestDeriveKey(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)

	tests := []struct {
		name       string
		passphrase string
		salt       []byte
		wantErr    string
	}{
		{name: "ok", passphrase: "correct horse battery", salt: salt},
		{name: "empty passphrase", passphrase: "", salt: salt, wantErr: "passphrase cannot be empty"},
		{name: "short salt", passphrase: "correct horse battery", salt: salt[:4], wantErr: "salt must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(tt.passphrase, tt.salt)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, KeySize)
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, SaltSize)

	k1, err := DeriveKey("correct horse battery", salt)
	require.NoError(t, err)
	k2, err := DeriveKey("correct horse battery", salt)
	require.NoError(t, err)
	k3, err := DeriveKey("wrong horse battery", salt)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestSealOpen(t *testing.T) {
	key := bytes.Repeat([]byte{3}, KeySize)
	other := bytes.Repeat([]byte{4}, KeySize)

	sealed, err := SealString("bearer-token", key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "bearer-token")

	got, err := OpenString(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", got)

	_, err = OpenString(sealed, other)
	assert.ErrorIs(t, err, ErrDecrypt)

	// одинаковый текст даёт разный шифротекст из-за nonce
	again, err := SealString("bearer-token", key)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)
}

func TestSeal_Errors(t *testing.T) {
	_, err := Seal(nil, make([]byte, KeySize))
	assert.Error(t, err)

	_, err = Seal([]byte("x"), make([]byte, 16))
	assert.Error(t, err)

	_, err = Open([]byte("short"), make([]byte, KeySize))
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = OpenString("%%%", make([]byte, KeySize))
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("secret")
	assert.Len(t, fp, 12)
	assert.Equal(t, fp, Fingerprint("secret"))
	assert.NotEqual(t, fp, Fingerprint("secret2"))
}
