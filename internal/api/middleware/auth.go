package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/selah-im/intake_server/internal/pkg/jwt"
	"github.com/selah-im/intake_server/internal/pkg/response"
)

const (
	AdminKey = "adminUsername"
)

// AdminAuth requires a Bearer token issued by the admin login.
func AdminAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "missing authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "authorization header must use the Bearer scheme")
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "invalid or expired token")
			return
		}

		c.Set(AdminKey, claims.Username)
		c.Next()
	}
}

func GetAdmin(c *gin.Context) (string, bool) {
	v, exists := c.Get(AdminKey)
	if !exists {
		return "", false
	}
	username, ok := v.(string)
	return username, ok && username != ""
}
