package identity

import "github.com/golang-jwt/jwt/v5"

// Identity is the verified caller as asserted by the identity provider.
type Identity struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Claims carries the identity in the provider's token. The user id is the
// standard "sub" claim.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}
