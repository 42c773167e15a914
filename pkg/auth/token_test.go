package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var testCfg = config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30}

func mint(t *testing.T, cfg config.JWTConfig, issuedAt time.Time, payload AccessTokenPayload) string {
	t.Helper()
	token, err := MintAccessToken(cfg, issuedAt, payload)
	require.NoError(t, err)
	return token
}

func TestMintAndParseRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	token := mint(t, testCfg, now, AccessTokenPayload{UserID: userID, Role: enums.UserRoleOwner, JTI: "session-1"})

	claims, err := ParseAccessToken(testCfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.UserRoleOwner, claims.Role)
	assert.Equal(t, "session-1", claims.ID)
	assert.Equal(t, "storefront", claims.Issuer)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintGeneratesJTI(t *testing.T) {
	token := mint(t, testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleUser})
	claims, err := ParseAccessToken(testCfg, token)
	require.NoError(t, err)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestMintValidatesConfigAndRole(t *testing.T) {
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleUser}
	for name, cfg := range map[string]config.JWTConfig{
		"secret":  {Issuer: "storefront", ExpirationMinutes: 5},
		"issuer":  {Secret: "s", ExpirationMinutes: 5},
		"minutes": {Secret: "s", Issuer: "storefront"},
	} {
		_, err := MintAccessToken(cfg, time.Now(), payload)
		assert.Error(t, err, name)
	}

	_, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	fresh := mint(t, testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleAdmin})
	stale := mint(t, testCfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleUser})

	_, err := ParseAccessToken(testCfg, fresh+"x")
	assert.Error(t, err)

	_, err = ParseAccessToken(testCfg, stale)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	other := testCfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, fresh)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{Role: enums.UserRoleOwner})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken(testCfg, unsigned)
	assert.Error(t, err)
}

func TestParseAllowExpiredKeepsJTIButChecksIssuer(t *testing.T) {
	stale := mint(t, testCfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleUser, JTI: "stale"})

	claims, err := ParseAccessTokenAllowExpired(testCfg, stale)
	require.NoError(t, err)
	assert.Equal(t, "stale", claims.ID)

	other := testCfg
	other.Issuer = "someone-else"
	_, err = ParseAccessTokenAllowExpired(other, stale)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	_, err = ParseAccessTokenAllowExpired(testCfg, stale+"x")
	assert.Error(t, err)
}
