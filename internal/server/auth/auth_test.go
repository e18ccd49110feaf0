package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pwisniewski/hipokrates/internal/common"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "staff", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken([]byte("right"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not.a.token", []byte("secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerifier_Plaintext(t *testing.T) {
	v := NewVerifier("", "hipokrates")
	assert.True(t, v.Verify("hipokrates"))
	assert.False(t, v.Verify("wrong"))
	assert.False(t, v.Verify(""))
}

func TestVerifier_HashTakesPrecedence(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	v := NewVerifier(string(hash), "plain-pw")
	assert.True(t, v.Verify("hashed-pw"))
	assert.False(t, v.Verify("plain-pw"), "plaintext is ignored when a hash is set")
}

func newTestLimiter(maxFailures int, window time.Duration) (*LoginLimiter, *time.Time) {
	l := NewLoginLimiter(maxFailures, window)
	current := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestLoginLimiter_LocksAfterMaxFailures(t *testing.T) {
	l, _ := newTestLimiter(3, 15*time.Minute)

	for i := 0; i < 2; i++ {
		l.RecordFailure("10.0.0.1")
		ok, _ := l.Check("10.0.0.1")
		assert.True(t, ok)
	}

	l.RecordFailure("10.0.0.1")
	ok, retryAfter := l.Check("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 15*time.Minute, retryAfter)

	// Other identities are unaffected.
	ok, _ = l.Check("10.0.0.2")
	assert.True(t, ok)
}

func TestLoginLimiter_WindowExpiry(t *testing.T) {
	l, current := newTestLimiter(2, 15*time.Minute)

	l.RecordFailure("10.0.0.1")
	l.RecordFailure("10.0.0.1")
	ok, _ := l.Check("10.0.0.1")
	require.False(t, ok)

	*current = current.Add(15*time.Minute + time.Second)
	ok, _ = l.Check("10.0.0.1")
	assert.True(t, ok, "failures outside the window are evicted")
}

func TestLoginLimiter_RetryAfterShrinks(t *testing.T) {
	l, current := newTestLimiter(2, 15*time.Minute)

	l.RecordFailure("10.0.0.1")
	l.RecordFailure("10.0.0.1")

	*current = current.Add(5 * time.Minute)
	ok, retryAfter := l.Check("10.0.0.1")
	require.False(t, ok)
	assert.Equal(t, 10*time.Minute, retryAfter)
}

func TestLoginLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(1, 15*time.Minute)

	l.RecordFailure("10.0.0.1")
	ok, _ := l.Check("10.0.0.1")
	require.False(t, ok)

	l.Reset("10.0.0.1")
	ok, _ = l.Check("10.0.0.1")
	assert.True(t, ok)
}
