package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	v, err := New(KeyConfig{PrimaryKey: key, KeyCreatedAt: time.Now()})
	require.NoError(t, err)
	return v
}

func TestVault_RoundTrip(t *testing.T) {
	v := newTestVault(t)

	for _, plaintext := range []string{"ghp_test", "", "token with spaces", "ü∂é-unicode"} {
		ct, err := v.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ct)

		pt, err := v.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, plaintext, pt)
	}
}

func TestVault_RotationPreservesReadability(t *testing.T) {
	v := newTestVault(t)

	ct, err := v.Encrypt("ghp_old_token")
	require.NoError(t, err)

	plan, err := v.Rotate()
	require.NoError(t, err)
	assert.NotEmpty(t, plan.NewPrimaryKey)
	assert.Len(t, plan.HistoricalKeys, 1)
	assert.NotEmpty(t, plan.EnvInstructions)

	// Old ciphertext decrypts via the historical chain.
	pt, err := v.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "ghp_old_token", pt)

	// New ciphertext uses the new primary and stays readable too.
	ct2, err := v.Encrypt("ghp_new_token")
	require.NoError(t, err)
	pt2, err := v.Decrypt(ct2)
	require.NoError(t, err)
	assert.Equal(t, "ghp_new_token", pt2)
}

func TestVault_DecryptUnknownKeyFailsExplicitly(t *testing.T) {
	v := newTestVault(t)
	other := newTestVault(t)

	ct, err := other.Encrypt("secret")
	require.NoError(t, err)

	_, err = v.Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecryptFailed)

	_, err = v.Decrypt("not even a fernet token")
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestNew_RequiresPrimaryKey(t *testing.T) {
	_, err := New(KeyConfig{})
	assert.ErrorIs(t, err, ErrNoPrimaryKey)

	_, err = New(KeyConfig{PrimaryKey: "   "})
	assert.ErrorIs(t, err, ErrNoPrimaryKey)

	_, err = New(KeyConfig{PrimaryKey: "not-base64!!"})
	assert.Error(t, err)
}

func TestNew_RejectsBadHistoricalKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	_, err = New(KeyConfig{PrimaryKey: key, HistoricalKeys: []string{"garbage"}})
	assert.Error(t, err)
}

func TestVault_Status(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	fresh, err := New(KeyConfig{PrimaryKey: key, KeyCreatedAt: time.Now()})
	require.NoError(t, err)
	st := fresh.Status()
	assert.True(t, st.PrimaryKeySet)
	assert.False(t, st.RotationDue)
	assert.Equal(t, 0, st.HistoricalCount)
	assert.Equal(t, DefaultRotationDays, st.DaysUntilRotation)

	stale, err := New(KeyConfig{PrimaryKey: key, KeyCreatedAt: time.Now().AddDate(0, 0, -120)})
	require.NoError(t, err)
	st = stale.Status()
	assert.True(t, st.RotationDue)
	assert.Equal(t, 120, st.AgeDays)
	assert.Equal(t, 0, st.DaysUntilRotation)
}

func TestVault_RotateUpdatesStatus(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	v, err := New(KeyConfig{PrimaryKey: key, KeyCreatedAt: time.Now().AddDate(0, 0, -100)})
	require.NoError(t, err)
	require.True(t, v.Status().RotationDue)

	_, err = v.Rotate()
	require.NoError(t, err)

	st := v.Status()
	assert.False(t, st.RotationDue)
	assert.Equal(t, 1, st.HistoricalCount)
}
