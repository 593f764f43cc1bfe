package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sira-platform/sira-api/internal/middleware"
	"github.com/sira-platform/sira-api/internal/models"
)

func scopeFromContext(c *gin.Context) (models.TenantScope, bool) {
	value, exists := c.Get(middleware.ContextScopeKey)
	if !exists {
		return models.TenantScope{}, false
	}
	scope, ok := value.(models.TenantScope)
	return scope, ok
}
