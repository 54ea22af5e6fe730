package websocket

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/malek283/shop-chat/internal/entity"
	user_repo "github.com/malek283/shop-chat/internal/repo/user"
	"github.com/malek283/shop-chat/internal/utils"
)

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// AuthenticatorFunc resolves the connecting user before the session is
// created. A failure rejects the connection with code 4001.
type AuthenticatorFunc func(r *http.Request) (*entity.User, error)

// JWTWebSocketAuth verifies the access token, checks the session is still
// live in redis, then loads the user record for role resolution.
func JWTWebSocketAuth(publicKey *rsa.PublicKey, rdb *redis.Client, users user_repo.UserRepoContract) AuthenticatorFunc {
	return func(r *http.Request) (*entity.User, error) {
		token := getTokenFromRequest(r)

		claims, err := utils.ParseAndVerifySign(token, publicKey)
		if err != nil {
			// The WS handshake cannot set cookies; an expired token must be
			// refreshed over HTTP before reconnecting.
			return nil, &AuthError{Message: "invalid or expired token"}
		}

		sessionKey := fmt.Sprintf("session:%s", claims.Sub)
		exists, err := rdb.Exists(context.Background(), sessionKey).Result()
		if err != nil || exists == 0 {
			return nil, &AuthError{Message: "session not found or revoked"}
		}

		userID, err := strconv.ParseUint(claims.Sub, 10, 64)
		if err != nil {
			return nil, &AuthError{Message: "malformed subject claim"}
		}

		user, appErr := users.FindByID(r.Context(), uint(userID))
		if appErr != nil {
			return nil, &AuthError{Message: "unknown user"}
		}

		return user, nil
	}
}

func getTokenFromRequest(r *http.Request) string {
	// Option 1: Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// Option 2: Query parameter
	token := r.URL.Query().Get("token")
	if token != "" {
		return token
	}

	// Option 3: Cookie
	cookie, err := r.Cookie("access_token")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
