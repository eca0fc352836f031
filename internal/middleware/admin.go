package middleware

import (
	"net/http"

	"trxearn/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated caller has the ADMIN role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// UserRequired keeps admin tokens off account routes, so an admin subject never becomes a ledger account.
func UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") == domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user access required"})
			return
		}
		c.Next()
	}
}
