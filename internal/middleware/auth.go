package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// OrgClaims are the claims the service expects in a bearer token. Identity
// resolution happens upstream; the token only has to carry the tenant and
// caller.
type OrgClaims struct {
	OrganizationID string `json:"org_id"`
	Subject        string `json:"sub"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens and scopes requests to an
// organization
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// RequireOrg validates the JWT and sets org_id and caller in context
func (m *AuthMiddleware) RequireOrg() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")

		// Check if it's Bearer token
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		// Extract token
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &OrgClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if claims.OrganizationID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token missing organization"})
			c.Abort()
			return
		}

		// Set tenant info in context
		c.Set("org_id", claims.OrganizationID)
		c.Set("caller", claims.Subject)

		c.Next()
	}
}
