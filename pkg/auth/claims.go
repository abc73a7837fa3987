package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Role     enums.OperatorRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to operators.
type AccessTokenClaims struct {
	UserID   uuid.UUID          `json:"user_id"`
	Username string             `json:"username"`
	Role     enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}
