package tenant

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/sira-platform/sira-api/internal/models"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
)

type institutionReader interface {
	FindInstitution(ctx context.Context, id string) (*models.Institution, error)
}

// Resolver derives the caller's institution scope from verified claims.
// Client payloads and query strings are never consulted: a forged tenant
// identifier in a request body has no path into the scope.
type Resolver struct {
	institutions institutionReader
	logger       *zap.Logger
}

// NewResolver constructs a tenant scope resolver.
func NewResolver(institutions institutionReader, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{institutions: institutions, logger: logger}
}

// Resolve returns the scope for a regular caller. Callers without a
// resolvable institution fail closed; the global role must go through
// ResolveForInstitution instead since it carries no implicit tenant.
func (r *Resolver) Resolve(ctx context.Context, claims *models.JWTClaims) (models.TenantScope, error) {
	if claims == nil {
		return models.TenantScope{}, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleGlobalAdmin {
		return models.TenantScope{}, appErrors.Clone(appErrors.ErrNoTenantScope, "global role requires an explicit institution target")
	}
	if claims.InstitutionID == "" {
		return models.TenantScope{}, appErrors.ErrNoTenantScope
	}

	scope := models.TenantScope{
		InstitutionID:   claims.InstitutionID,
		InstitutionType: claims.InstitutionType,
		ActorID:         claims.UserID,
		ActorRole:       claims.Role,
	}
	if !scope.InstitutionType.Valid() {
		// Trusted claims win; the lookup is only a fallback.
		institution, err := r.institutions.FindInstitution(ctx, claims.InstitutionID)
		if err != nil {
			if err == sql.ErrNoRows {
				return models.TenantScope{}, appErrors.ErrNoTenantScope
			}
			return models.TenantScope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve institution")
		}
		scope.InstitutionType = institution.Type
	}
	return scope, nil
}

// ResolveForInstitution scopes a global-role caller to a single explicit
// institution for one call. The target is checked against the caller's
// separately-granted authorization list, never taken at face value.
func (r *Resolver) ResolveForInstitution(ctx context.Context, claims *models.JWTClaims, institutionID string) (models.TenantScope, error) {
	if claims == nil {
		return models.TenantScope{}, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleGlobalAdmin {
		scope, err := r.Resolve(ctx, claims)
		if err != nil {
			return models.TenantScope{}, err
		}
		// Non-global callers cannot redirect their own scope.
		if institutionID != "" && institutionID != scope.InstitutionID {
			return models.TenantScope{}, appErrors.ErrForbidden
		}
		return scope, nil
	}
	if institutionID == "" {
		return models.TenantScope{}, appErrors.Clone(appErrors.ErrNoTenantScope, "institution target required")
	}
	if !authorized(claims.AuthorizedInstitutions, institutionID) {
		r.logger.Warn("global caller targeted unauthorized institution",
			zap.String("user_id", claims.UserID),
			zap.String("target", institutionID),
		)
		return models.TenantScope{}, appErrors.ErrForbidden
	}

	institution, err := r.institutions.FindInstitution(ctx, institutionID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Generic denial; existence must not leak.
			return models.TenantScope{}, appErrors.ErrForbidden
		}
		return models.TenantScope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve institution")
	}

	return models.TenantScope{
		InstitutionID:   institution.ID,
		InstitutionType: institution.Type,
		ActorID:         claims.UserID,
		ActorRole:       claims.Role,
	}, nil
}

func authorized(granted []string, target string) bool {
	for _, id := range granted {
		if id == "*" || id == target {
			return true
		}
	}
	return false
}
