package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"advisor-booking/pkg/jwt"
	"advisor-booking/pkg/response"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
	RoleKey      contextKey = "role"
	TokenIDKey   contextKey = "token_id"
)

// RevokedTokenKeyPrefix marks access tokens revoked by the auth service before expiry
const RevokedTokenKeyPrefix = "revoked_token:"

type AuthMiddleware struct {
	jwtService  *jwt.JWTService
	redisClient *redis.Client
}

func NewAuthMiddleware(jwtService *jwt.JWTService, redisClient *redis.Client) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		redisClient: redisClient,
	}
}

// Authenticate accepts a bearer access token, rejects revoked ones and
// stores the caller identity on the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			response.Unauthorized(w, "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := m.jwtService.ValidateAccessToken(raw)
		switch {
		case errors.Is(err, jwt.ErrWrongTokenType):
			response.Unauthorized(w, "Invalid token type")
			return
		case err != nil:
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		revoked, err := m.redisClient.Exists(r.Context(), RevokedTokenKeyPrefix+claims.TokenID).Result()
		if err != nil {
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if revoked > 0 {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		ctx := WithUser(r.Context(), claims.UserID, claims.Role)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
		ctx = context.WithValue(ctx, TokenIDKey, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUser stores the caller identity in ctx
func WithUser(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext extracts user email from context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}

// GetRoleFromContext extracts the caller role from context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
