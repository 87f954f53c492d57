package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GeneratePairAndValidate(t *testing.T) {
	m := NewManager("secret", "civicreport", time.Minute, time.Hour)

	pair, err := m.GeneratePair(42)
	require.NoError(t, err)

	claims, err := m.Validate(pair.Access, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.NotEmpty(t, claims.ID)

	claims, err = m.Validate(pair.Refresh, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestManager_ValidateWrongType(t *testing.T) {
	m := NewManager("secret", "", time.Minute, time.Hour)

	pair, err := m.GeneratePair(1)
	require.NoError(t, err)

	_, err = m.Validate(pair.Refresh, AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestManager_ValidateExpired(t *testing.T) {
	m := NewManager("secret", "", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, _, err := m.Generate(1, AccessToken)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_ValidateForeignSecret(t *testing.T) {
	issuer := NewManager("secret-a", "", time.Minute, time.Hour)
	verifier := NewManager("secret-b", "", time.Minute, time.Hour)

	token, _, err := issuer.Generate(1, AccessToken)
	require.NoError(t, err)

	_, err = verifier.Validate(token, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Validate("not-a-token", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Remaining(t *testing.T) {
	m := NewManager("secret", "", time.Minute, time.Hour)

	_, claims, err := m.Generate(1, RefreshToken)
	require.NoError(t, err)

	remaining := m.Remaining(claims)
	assert.True(t, remaining > 59*time.Minute && remaining <= time.Hour)
}

func TestManager_TTLs(t *testing.T) {
	m := NewManager("secret", "", 5*time.Minute, 24*time.Hour)
	assert.Equal(t, 5*time.Minute, m.AccessTTL())
	assert.Equal(t, 24*time.Hour, m.RefreshTTL())
}
