package jwt

import (
	"testing"
	"time"

	"advisor-booking/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s3cret", AccessExpiry: time.Minute, Issuer: "auth.example.com"})
	userID := uuid.New()

	token, tokenID, err := svc.GenerateAccessToken(userID, "lena@example.com", "patient")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "patient", claims.Role)
	assert.Equal(t, tokenID, claims.TokenID)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	cfg := config.JWTConfig{Secret: "s3cret", AccessExpiry: time.Minute, Issuer: "auth.example.com"}
	svc := NewJWTService(cfg)

	sign := func(c Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() Claims {
		return Claims{
			UserID:    uuid.New(),
			Role:      "patient",
			TokenType: AccessToken,
			TokenID:   uuid.NewString(),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	refresh := valid()
	refresh.TokenType = "refresh"

	foreignIssuer := valid()
	foreignIssuer.Issuer = "evil.example.com"

	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
		err   error
	}{
		{"garbage", "abc.def", ErrInvalidToken},
		{"expired", sign(expired, jwt.SigningMethodHS256, []byte(cfg.Secret)), ErrInvalidToken},
		{"wrong secret", sign(valid(), jwt.SigningMethodHS256, []byte("other")), ErrInvalidToken},
		{"wrong algorithm", sign(valid(), jwt.SigningMethodHS512, []byte(cfg.Secret)), ErrInvalidToken},
		{"foreign issuer", sign(foreignIssuer, jwt.SigningMethodHS256, []byte(cfg.Secret)), ErrInvalidToken},
		{"no expiry", sign(noExpiry, jwt.SigningMethodHS256, []byte(cfg.Secret)), ErrInvalidToken},
		{"refresh token", sign(refresh, jwt.SigningMethodHS256, []byte(cfg.Secret)), ErrWrongTokenType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
