package middleware

import (
	"net/http"
	"strings"

	"github.com/fixcity/api/internal/auth"
	"github.com/fixcity/api/internal/model"
	"github.com/gin-gonic/gin"
)

func extractClaims(c *gin.Context, jwtSecret string) *auth.Claims {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil
	}

	claims, err := auth.ValidateAccessToken(parts[1], jwtSecret)
	if err != nil {
		return nil
	}
	return claims
}

func setUserContext(c *gin.Context, claims *auth.Claims) {
	c.Set("userID", claims.UserID)
	c.Set("userEmail", claims.Email)
	c.Set("userName", claims.Name)
	c.Set("userRole", claims.Role)
}

// AuthMiddleware requires a valid JWT token
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := extractClaims(c, jwtSecret)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			c.Abort()
			return
		}

		setUserContext(c, claims)
		c.Next()
	}
}

// OfficerMiddleware requires a valid JWT token AND an officer: either the
// officer role on the user, or membership in the configured officer email
// list (the bootstrap path before roles are assigned).
func OfficerMiddleware(jwtSecret string, officerEmails []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := extractClaims(c, jwtSecret)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			c.Abort()
			return
		}

		isOfficer := claims.Role == model.RoleOfficer
		for _, email := range officerEmails {
			if strings.EqualFold(email, claims.Email) {
				isOfficer = true
				break
			}
		}

		if !isOfficer {
			c.JSON(http.StatusForbidden, gin.H{"error": "officer access required"})
			c.Abort()
			return
		}

		setUserContext(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware extracts user info if a token is present, but doesn't
// require it
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := extractClaims(c, jwtSecret); claims != nil {
			setUserContext(c, claims)
		}
		c.Next()
	}
}
