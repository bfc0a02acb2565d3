package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the caller identity.
const IdentityKey = "identity"

// RequireIdentity extracts the caller-supplied identity from the User
// header. There is no authentication beyond this; requests without an
// identity cannot be processed.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := strings.TrimSpace(c.GetHeader("User"))
		if identity == "" {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "missing User header"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}
