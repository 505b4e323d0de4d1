package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "")
	now := time.Now()
	s := &domain.Session{ID: "s1", UserID: "a1", Role: domain.RoleAdmin, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	token, err := tm.GenerateToken(s)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "a1", claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestTokenManager_RejectsForeignAndExpired(t *testing.T) {
	now := time.Now()
	s := &domain.Session{ID: "s1", UserID: "a1", Role: domain.RoleTenant, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	token, err := NewTokenManager("other", "").GenerateToken(s)
	require.NoError(t, err)
	_, err = NewTokenManager("secret", "").ValidateToken(token)
	assert.Error(t, err)

	expired := &domain.Session{ID: "s2", UserID: "a1", Role: domain.RoleTenant, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	token, err = NewTokenManager("secret", "").GenerateToken(expired)
	require.NoError(t, err)
	_, err = NewTokenManager("secret", "").ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tok, err := ExtractToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = ExtractToken("Basic abc")
	assert.Error(t, err)
	_, err = ExtractToken("Bearer")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", hash)
	assert.True(t, CheckPassword(hash, "pw"))
	assert.False(t, CheckPassword(hash, "PW"))
	assert.False(t, CheckPassword("not-a-hash", "pw"))

	other, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes are salted")
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
	_, err := GenerateCode(0)
	assert.Error(t, err)
}
