package offertoken_test

import (
	"strings"
	"testing"
	"time"

	"dispatch/internal/pkg/offertoken"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

func TestSignAndParse(t *testing.T) {
	t.Run("round trips claims", func(t *testing.T) {
		expiry := time.Now().Add(30 * time.Minute)

		token, err := offertoken.Sign("route-1", "task-1", "failed", expiry, testSecret)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)

		claims, err := offertoken.Parse(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "route-1", claims.RouteID)
		assert.Equal(t, "task-1", claims.TaskID)
		assert.Equal(t, "failed", claims.TriggerName)
		assert.Equal(t, expiry.Unix(), claims.ExpiresAt)
	})

	t.Run("omits optional claims", func(t *testing.T) {
		token, err := offertoken.Sign("route-1", "", "", time.Now().Add(time.Hour), testSecret)
		require.NoError(t, err)

		claims, err := offertoken.Parse(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "route-1", claims.RouteID)
		assert.Empty(t, claims.TaskID)
	})
}

func TestParse_Malformed(t *testing.T) {
	t.Run("rejects garbage", func(t *testing.T) {
		_, err := offertoken.Parse("not-a-token", testSecret)
		require.ErrorIs(t, err, offertoken.ErrTokenMalformed)
	})

	t.Run("rejects wrong number of segments", func(t *testing.T) {
		_, err := offertoken.Parse("only.two", testSecret)
		require.ErrorIs(t, err, offertoken.ErrTokenMalformed)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token, err := offertoken.Sign("route-1", "", "", time.Now().Add(time.Hour), []byte("other"))
		require.NoError(t, err)

		_, err = offertoken.Parse(token, testSecret)
		require.ErrorIs(t, err, offertoken.ErrTokenMalformed)
	})
}

func TestParse_Expired(t *testing.T) {
	token, err := offertoken.Sign("route-1", "", "", time.Now().Add(-time.Minute), testSecret)
	require.NoError(t, err)

	_, err = offertoken.Parse(token, testSecret)
	require.ErrorIs(t, err, offertoken.ErrTokenExpired)
	assert.NotErrorIs(t, err, offertoken.ErrTokenMalformed)
}
