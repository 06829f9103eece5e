package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getNewPassword = GetNewPassword

// readCredentials prompts for an email and a password. A new account asks
// for the password twice.
func (a *App) readCredentials(newAccount bool) (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return "", nil, err
	}

	var password []byte
	if newAccount {
		password, err = getNewPassword(a.out)
	} else {
		password, err = getPassword(a.out, "Password")
	}
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register prompts for an email and password and creates the account. The
// server logs the new user in right away, so the returned tokens are kept.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.readCredentials(true)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, email, string(password)); err != nil {
		return err
	}

	a.email = email
	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login prompts for credentials and authenticates against the server.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials(false)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, string(password)); err != nil {
		return err
	}

	a.email = email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout drops the in-memory tokens.
func (a *App) Logout(ctx context.Context) error {
	a.api.Logout()
	a.email = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Status checks that the server answers its health endpoint.
func (a *App) Status(ctx context.Context) error {
	if err := a.api.Health(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server is up")
	return nil
}
