package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/inkdesk-dev/inkdesk/internal/auth"
	"github.com/inkdesk-dev/inkdesk/internal/models"
)

const (
	bearerPrefix = "Bearer "
	sessionKey   = "session"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set(sessionKey, sessionData)
}

// GetSessionData returns the session set by JWTAuthMiddleware
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// respondWithError aborts with the {"detail": ...} body the console expects
func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Int("status", statusCode).Msg(message)
	c.AbortWithStatusJSON(statusCode, gin.H{"detail": message})
}

// JWTAuthMiddleware validates bearer tokens and loads the active user
func JWTAuthMiddleware(db *gorm.DB, issuer *auth.Issuer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, "Not authenticated")
			return
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Token is invalid or expired")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Token is invalid or expired")
			return
		}

		var user models.User
		if err := models.FindByID(db, userID, &user); err != nil || !user.IsActive {
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User does not exist or is disabled")
			return
		}

		setSession(c, &auth.SessionData{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		})

		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Not authenticated")
			return
		}

		if !strings.EqualFold(sessionData.Role, models.RoleAdmin) {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin privileges required")
			return
		}

		c.Next()
	}
}

// ownerFilter returns the user ID records must belong to, or 0 for admins who see everything
func ownerFilter(c *gin.Context) int64 {
	sessionData, ok := GetSessionData(c)
	if !ok || strings.EqualFold(sessionData.Role, models.RoleAdmin) {
		return 0
	}
	return sessionData.UserID
}
