package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ProviderID uuid.UUID
	Role       enums.ProviderRole
	Email      string
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to portal clients.
type AccessTokenClaims struct {
	ProviderID uuid.UUID          `json:"provider_id"`
	Role       enums.ProviderRole `json:"role"`
	Email      string             `json:"email,omitempty"`
	jwt.RegisteredClaims
}
