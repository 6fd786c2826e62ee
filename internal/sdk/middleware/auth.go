package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

const (
	msgNoToken      = "Unauthorized: No token provided"
	msgInvalidToken = "Unauthorized: Invalid token"
)

var ErrNoUserID = errors.New("middleware: no authenticated user in context")

// TokenVerifier validates a session token and returns the user id it names.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// token's user id in the context for the handlers that follow.
func Authenticate(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, bearer := ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgNoToken})
			return
		}
		if !bearer {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgInvalidToken})
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgInvalidToken})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// ExtractBearer returns the credential that follows the scheme in an
// Authorization header value, and whether the scheme is "Bearer" (matched
// case-insensitively). The token is empty when the header has no second part.
func ExtractBearer(header string) (token string, bearer bool) {
	scheme, rest, _ := strings.Cut(strings.TrimSpace(header), " ")
	token, _, _ = strings.Cut(strings.TrimSpace(rest), " ")
	return token, strings.EqualFold(scheme, "Bearer")
}

// GetUserID returns the user id set by Authenticate.
func GetUserID(c *gin.Context) (string, error) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return "", ErrNoUserID
	}

	userID, ok := v.(string)
	if !ok || userID == "" {
		return "", ErrNoUserID
	}
	return userID, nil
}
