package middleware

import (
	"booknet/internal/domain"   // Roles
	"booknet/internal/response" // Error envelope
	"fmt"                       // Message formatting
	"net/http"                  // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// RequireRole admits only identities whose role is one of roles. It must run after RequireAuth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	required := domain.JoinRoles(roles)
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			// No identity in context
			response.FailWithDetail(c, http.StatusUnauthorized, response.MsgAuthentication, "Not authorized, no token")
			return
		}
		if !identity.Role.In(roles...) {
			logrus.WithFields(logrus.Fields{
				"user_id":  identity.ID,
				"role":     identity.Role,
				"required": required,
				"path":     c.FullPath(),
			}).Warn("role check failed")
			response.Fail(c, http.StatusForbidden,
				fmt.Sprintf("Access Denied. Required roles: %s. Your role: %s.", required, identity.Role))
			return
		}
		c.Next()
	}
}
