package services

import (
	"context"
	"strings"

	"socrat/internal/apperr"
	"socrat/internal/models/domain"
	"socrat/internal/models/request_models"
	"socrat/pkg/logger"
)

// Authenticator is the part of the quiz service that issues learner tokens.
type Authenticator interface {
	Signup(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error)
}

type AccountServiceInterface interface {
	Signup(ctx context.Context, req request_models.SignUpRequest) (domain.AuthToken, error)
	Login(ctx context.Context, req request_models.LoginRequest) (domain.AuthToken, error)
	// Logout drops the learner's workspace; the token itself stays valid until it expires.
	Logout(userID string)
}

type AccountService struct {
	auth       Authenticator
	workspaces interface{ Delete(key string) }
	log        *logger.Logger
}

func NewAccountService(auth Authenticator, workspaces interface{ Delete(key string) }, log *logger.Logger) AccountServiceInterface {
	return &AccountService{
		auth:       auth,
		workspaces: workspaces,
		log:        log.With("component", "account_service"),
	}
}

func (a *AccountService) Signup(ctx context.Context, req request_models.SignUpRequest) (domain.AuthToken, error) {
	creds := domain.Credentials{
		Email:    strings.TrimSpace(req.Email),
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	}
	tok, err := a.auth.Signup(ctx, creds)
	if err != nil {
		a.log.Warn("signup failed", "email", creds.Email, "error", err)
		return domain.AuthToken{}, err
	}
	if tok.AccessToken == "" {
		return domain.AuthToken{}, apperr.New(apperr.RemoteUnavailable, "signup", "no token in response")
	}
	return tok, nil
}

func (a *AccountService) Login(ctx context.Context, req request_models.LoginRequest) (domain.AuthToken, error) {
	creds := domain.Credentials{Email: strings.TrimSpace(req.Email), Password: req.Password}
	tok, err := a.auth.Login(ctx, creds)
	if err != nil {
		a.log.Warn("login failed", "email", creds.Email, "error", err)
		return domain.AuthToken{}, err
	}
	if tok.AccessToken == "" {
		return domain.AuthToken{}, apperr.New(apperr.RemoteUnavailable, "login", "no token in response")
	}
	return tok, nil
}

func (a *AccountService) Logout(userID string) {
	a.workspaces.Delete(userID)
}
