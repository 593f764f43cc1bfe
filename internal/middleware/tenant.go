package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sira-platform/sira-api/internal/models"
	"github.com/sira-platform/sira-api/internal/tenant"
	"github.com/sira-platform/sira-api/pkg/response"

	appErrors "github.com/sira-platform/sira-api/pkg/errors"
)

// ContextScopeKey is the gin context key storing the resolved tenant scope.
const ContextScopeKey = "tenantScope"

// ActForHeader names the explicit per-call institution target honoured
// only for the global role. For every other role it is ignored outright;
// the scope comes from verified claims alone.
const ActForHeader = "X-Act-For-Institution"

// TenantScope resolves the caller's institution scope and stores it in
// the request context. Requests without a resolvable scope fail closed.
func TenantScope(resolver *tenant.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		var scope models.TenantScope
		var err error
		if claims.Role == models.RoleGlobalAdmin {
			scope, err = resolver.ResolveForInstitution(c.Request.Context(), claims, c.GetHeader(ActForHeader))
		} else {
			scope, err = resolver.Resolve(c.Request.Context(), claims)
		}
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextScopeKey, scope)
		c.Next()
	}
}
