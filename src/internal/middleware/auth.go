package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"wellmind-session-svc/src/internal/activity"
	"wellmind-session-svc/src/internal/models"
	"wellmind-session-svc/src/internal/session"
)

// Claims represents the JWT claims issued by the auth service.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware guards the protected routes. The session core keeps
// treating the stored token as opaque; signature and expiry checks happen
// only here, at the HTTP surface.
type AuthMiddleware struct {
	jwtSecret string
	sessions  *session.Manager
	tracker   *activity.Tracker
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(jwtSecret string, sessions *session.Manager, tracker *activity.Tracker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		sessions:  sessions,
		tracker:   tracker,
	}
}

// RequireSession validates the bearer token against the active session.
// Reaching a protected route counts as qualifying activity.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := m.validateJWTToken(token)
		if err != nil {
			logrus.WithError(err).Warn("JWT token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		current := m.sessions.Snapshot()
		if !current.LoggedIn() || current.Token != token {
			logrus.Warn("Bearer token does not match the active session")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Session expired - please login again",
			})
			c.Abort()
			return
		}

		c.Set("user_email", claims.Email)

		m.tracker.TouchAction(c.Request.Context(), claims.Email,
			models.ServiceSessionManager, models.ActionNavigation)

		logrus.WithField("email", claims.Email).Debug("User authenticated successfully")
		c.Next()
	}
}

// extractToken extracts the JWT token from the Authorization header.
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		logrus.Warn("Invalid authorization header format")
		return ""
	}

	return strings.TrimPrefix(authHeader, "Bearer ")
}

// validateJWTToken parses and validates the token signature and expiration.
func (m *AuthMiddleware) validateJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(m.jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
