package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles the core distinguishes.
type UserRole string

const (
	RoleGlobalAdmin UserRole = "GLOBAL_ADMIN"
	RoleRegistrar   UserRole = "REGISTRAR"
	RoleSecretary   UserRole = "SECRETARY"
	RoleTeacher     UserRole = "TEACHER"
)

// JWTClaims is the verified access-token payload. InstitutionID here is
// the only trusted source of tenant identity; request payloads are never
// consulted.
type JWTClaims struct {
	UserID          string          `json:"user_id"`
	Role            UserRole        `json:"role"`
	InstitutionID   string          `json:"institution_id"`
	InstitutionType InstitutionType `json:"institution_type"`
	// AuthorizedInstitutions limits which tenants a GLOBAL_ADMIN may
	// target per call. Granted by the identity provider, never by the
	// request payload.
	AuthorizedInstitutions []string `json:"authorized_institutions,omitempty"`
	jwt.RegisteredClaims
}

// TenantScope is the resolved institution scope threaded explicitly
// through every core call.
type TenantScope struct {
	InstitutionID   string          `json:"institution_id"`
	InstitutionType InstitutionType `json:"institution_type"`
	ActorID         string          `json:"actor_id"`
	ActorRole       UserRole        `json:"actor_role"`
}
