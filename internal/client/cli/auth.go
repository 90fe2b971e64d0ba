package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidtube/internal/client/client"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for a username or email and a password and starts a session.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	account, err := a.api.Login(ctx, identifier, string(password))
	if err != nil {
		return err
	}

	a.printf("Logged in as %s\n", account.Username)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		return err
	}
	a.printf("Session refreshed, access token valid until %s\n", a.api.Session().AccessTokenExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// Logout ends the session. A session the server has already revoked is
// still forgotten locally.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	if errors.Is(err, client.ErrUnauthorized) {
		a.api.SetSession(client.Session{})
		a.persistSession(client.Session{})
		err = nil
	}
	if err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	account, err := a.api.CurrentUser(ctx)
	if err != nil {
		return err
	}

	a.printf("id:        %s\n", account.ID)
	a.printf("username:  %s\n", account.Username)
	a.printf("email:     %s\n", account.Email)
	a.printf("full name: %s\n", account.FullName)
	a.printf("avatar:    %s\n", account.Avatar)
	if account.CoverImage != "" {
		a.printf("cover:     %s\n", account.CoverImage)
	}
	return nil
}

// ChangePassword prompts for the current and the new password. The new one
// is asked twice.
func (a *App) ChangePassword(ctx context.Context) error {
	oldPassword, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer wipe(oldPassword)

	newPassword, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer wipe(newPassword)

	confirm, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	defer wipe(confirm)

	if string(newPassword) != string(confirm) {
		return fmt.Errorf("%w: passwords do not match", client.ErrInvalidInput)
	}

	if err := a.api.ChangePassword(ctx, string(oldPassword), string(newPassword)); err != nil {
		return err
	}

	a.printf("Password changed. Log in again on other devices.\n")
	return nil
}
