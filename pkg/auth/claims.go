package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role mirrors the marketplace account roles carried in access tokens.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleWorker   Role = "worker"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// AccessTokenClaims represents the typed JWT the marketplace issues to clients.
// The gateway only parses these; issuance lives upstream.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}
