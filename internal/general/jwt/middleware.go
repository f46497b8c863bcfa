package jwt

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinAuth validates bearer tokens and injects claims into the request context. Used for control API routes.
func GinAuth(mgr *Manager, allowedRoles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		// extract token from Authorization header
		raw, err := FromAuthorization(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		// parse and validate token
		_, claims, err := mgr.ParseAndValidate(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		// enforce role-based access control (RBAC)
		if err := RoleAllowed(claims, allowedRoles...); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}

		// inject claims into context and proceed
		c.Request = c.Request.WithContext(InjectClaims(c.Request.Context(), claims))
		c.Next()
	}
}
