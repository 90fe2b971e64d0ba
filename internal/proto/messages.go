// Package proto holds the wire contract of vidtube.auth.v1.AuthService:
// request and response messages, the server and client interfaces and the
// JSON codec both sides register.
package proto

// Account is the public account projection sent over the wire. Timestamps
// are RFC 3339.
type Account struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"cover_image,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Account *Account `json:"account"`
	Tokens  *Tokens  `json:"tokens"`
}

// Tokens carries a token pair. Expiry is unix seconds.
type Tokens struct {
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresAt  int64  `json:"access_token_expires_at"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	Tokens *Tokens `json:"tokens"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordResponse struct{}

type CurrentUserRequest struct{}

type CurrentUserResponse struct {
	Account *Account `json:"account"`
}
