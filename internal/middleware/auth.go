package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// ErrMissingToken indicates no token was supplied with the request.
var ErrMissingToken = errors.New("missing authentication token")

// Auth returns a Gin middleware that verifies tokens issued by the identity
// provider and puts the actor id (and display name, when present) on the
// request context. Identity itself is external; this is only the boundary
// check.
func Auth(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			if errors.Is(err, ErrMissingToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token is required"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			}
			c.Abort()
			return
		}

		claims, err := validateToken(tokenStr, jwtSecret)
		if err != nil {
			logrus.WithError(err).Warn("Auth middleware: invalid token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		actorIDClaim, ok := claims["user_id"]
		if !ok {
			logrus.Error("Auth middleware: 'user_id' claim missing in token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is missing user identity"})
			c.Abort()
			return
		}
		// JWT numbers decode as float64.
		actorIDFloat, ok := actorIDClaim.(float64)
		if !ok || actorIDFloat <= 0 || actorIDFloat != float64(uint(actorIDFloat)) {
			logrus.Errorf("Auth middleware: 'user_id' claim is not a valid positive integer: %v", actorIDClaim)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token carries an invalid user identity"})
			c.Abort()
			return
		}
		actorID := uint(actorIDFloat)

		displayName := fmt.Sprintf("user-%d", actorID)
		if nameClaim, ok := claims["display_name"].(string); ok && nameClaim != "" {
			displayName = nameClaim
		}

		c.Set("user_id", actorID)
		c.Set("display_name", displayName)
		c.Next()
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the token query parameter for WebSocket upgrades (browsers cannot
// set headers on those).
func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", jwt.ErrTokenMalformed
		}
		return parts[1], nil
	}
	if token := c.Query("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

func validateToken(tokenStr string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token or claims type")
}
