// Package services contains application services for the gophchat client.
// This file defines the authentication service: login, register, logout and
// the derived authenticated state.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/credentials"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange credentials for a token and store it.
//   - Register: create an account on the server. Does not log in.
//   - Logout: forget the stored token. The server is not contacted.
//   - IsAuthenticated: true iff a non-empty token is stored.
//   - Identity: unverified claims of the stored token, for display.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) error
	Register(ctx context.Context, email string, password []byte) (models.Registration, error)
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
	Identity(ctx context.Context) (models.Identity, error)
}

// authService is the only writer of the credential store.
type authService struct {
	client client.Client
	store  credentials.Store
	log    logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// credential store.
func NewAuthService(c client.Client, store credentials.Store, log logging.Logger) AuthService {
	return &authService{client: c, store: store, log: log.With("component", "auth")}
}

// Login authenticates against the server and stores the issued token. On
// failure the stored credential is left as it was.
func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return nil
	}

	token, err := a.client.Login(ctx, email, password)
	if err != nil {
		a.log.Error(ctx, "login failed", "email", email, "error", err)
		return err
	}

	if err := a.store.Set(ctx, token); err != nil {
		a.log.Error(ctx, "saving credential failed", "error", err)
		return fmt.Errorf("login: %w", err)
	}

	a.log.Info(ctx, "logged in", "email", email)
	return nil
}

// Register creates a new account on the server.
func (a *authService) Register(ctx context.Context, email string, password []byte) (models.Registration, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return models.Registration{}, nil
	}

	reg, err := a.client.Register(ctx, email, password)
	if err != nil {
		a.log.Error(ctx, "register failed", "email", email, "error", err)
		return models.Registration{}, err
	}

	a.log.Info(ctx, "registered", "email", email, "user_id", reg.UserID)
	return reg, nil
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		a.log.Error(ctx, "logout failed", "error", err)
		return err
	}
	a.log.Info(ctx, "logged out")
	return nil
}

func (a *authService) IsAuthenticated(ctx context.Context) bool {
	token, err := a.store.Token(ctx)
	if err != nil {
		a.log.Warn(ctx, "reading credential failed", "error", err)
		return false
	}
	return token != ""
}

// Identity decodes the stored token's claims without verifying the
// signature. Tokens that are not JWTs yield an empty Identity.
func (a *authService) Identity(ctx context.Context) (models.Identity, error) {
	token, err := a.store.Token(ctx)
	if err != nil {
		return models.Identity{}, err
	}
	if token == "" {
		return models.Identity{}, ErrNotAuthenticated
	}
	return decodeIdentity(token), nil
}

func decodeIdentity(token string) models.Identity {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.Identity{}
	}

	var id models.Identity
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	switch v := claims["user_id"].(type) {
	case float64:
		id.UserID = int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			id.UserID = n
		}
	}
	return id
}
