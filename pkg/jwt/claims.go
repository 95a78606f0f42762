package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the caller of the summary query API. UserID is the
// platform user ID, which is what summary access lists are keyed by.
type Claims struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}
