package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"hiryo-backoffice/utils"

	"github.com/gin-gonic/gin"
)

const claimsKey = "admin_claims"

// AuthError describes why a request carries no usable admin identity.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// AuthMiddleware reads an optional "Authorization: Bearer" admin token. Public
// actions share routes with admin ones, so a missing token is not rejected
// here; a token that is present but invalid is.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			abortUnauthorized(c, "Authorization header must be a Bearer token")
			return
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			slog.Info("Rejected admin token", "error", err, "request_id", c.GetString(RequestIDKey))
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
}

// GetAdminClaims returns the claims of the authenticated admin.
func GetAdminClaims(c *gin.Context) (*utils.Claims, error) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, &AuthError{Code: "UNAUTHENTICATED", Message: "Admin authentication required"}
	}
	claims, ok := v.(*utils.Claims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}
	return claims, nil
}
