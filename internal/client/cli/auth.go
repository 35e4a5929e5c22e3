package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// readCredentials prompts for an email and a password. Both are empty when the
// user left either one blank. The caller wipes the password.
func (a *App) readCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}

	if strings.TrimSpace(email) == "" || len(password) == 0 {
		common.WipeByteArray(password)
		a.println("Email and password are required.")
		return "", nil, nil
	}
	return email, password, nil
}

// Register prompts for an email and password and creates an account. The
// new account is not logged in.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil || email == "" {
		return err
	}
	defer common.WipeByteArray(password)

	reg, err := a.authService.Register(ctx, email, password)
	if err != nil {
		return err
	}

	msg := reg.Message
	if msg == "" {
		msg = "Success!"
	}
	if reg.UserID != 0 {
		a.printf("%s (user #%d). Use 'login' to sign in.\n", msg, reg.UserID)
	} else {
		a.printf("%s Use 'login' to sign in.\n", msg)
	}
	return nil
}

// Login prompts for credentials and stores the issued token. On success any
// chat state of a previous login is dropped and the directory is refreshed.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil || email == "" {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, email, password); err != nil {
		return err
	}
	a.println("Logged in as", userStyle.Render(strings.TrimSpace(email)))

	a.directoryService.Reset()
	if err := a.chatService.Select(ctx, 0); err != nil {
		return err
	}
	if _, err := a.directoryService.ListSessions(ctx); err != nil {
		a.log.Warn(ctx, "chat list after login failed", "error", err)
	}
	return nil
}

// Logout forgets the stored token and every piece of per-user state held in
// memory.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.directoryService.Reset()
	if err := a.chatService.Select(ctx, 0); err != nil {
		return err
	}
	a.println("Logged out.")
	return nil
}

// WhoAmI prints what the stored token says about its owner.
func (a *App) WhoAmI(ctx context.Context) error {
	id, err := a.authService.Identity(ctx)
	if err != nil {
		return err
	}
	a.println(renderIdentity(id, a.now()))
	return nil
}
