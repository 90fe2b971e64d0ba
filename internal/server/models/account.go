// Package models holds the server-side domain types.
package models

import "time"

// Account is a registered user as persisted by the credential store.
//
// RefreshToken is nil when the account has no active session, otherwise it
// holds exactly the last refresh token issued to it.
type Account struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.RefreshToken != nil {
		t := *a.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}

// PublicAccountView is the account as it may leave the server. It carries
// no password hash and no refresh token.
type PublicAccountView struct {
	ID            string    `json:"_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewPublicAccountView projects a onto its public fields.
func NewPublicAccountView(a *Account) *PublicAccountView {
	if a == nil {
		return nil
	}
	return &PublicAccountView{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		FullName:      a.FullName,
		AvatarURL:     a.AvatarURL,
		CoverImageURL: a.CoverImageURL,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
