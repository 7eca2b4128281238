// Package console contains the services used by the admin console: the admin session and the
// agency and company resources.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/agencydesk/console/internal/apiclient"
	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/models"
	"github.com/agencydesk/console/internal/sessionstore"
)

const (
	loginEndpoint    string = "/api/admins/login"
	registerEndpoint string = "/api/admins"
)

// Sessions logs admins in and out and keeps the session store up to date.
type Sessions struct {
	client *apiclient.Client
	store  *sessionstore.Store
}

func validateCredentials(credentials models.Credentials) error {
	if credentials.EmailAddress == "" {
		return fmt.Errorf("the email address is required")
	}
	if credentials.Password == "" {
		return fmt.Errorf("the password is required")
	}
	return nil
}

func (s *Sessions) issueTokens(ctx context.Context, endpoint string, credentials models.Credentials) (models.LoginResult, error) {
	err := validateCredentials(credentials)
	if err != nil {
		return models.LoginResult{}, err
	}
	res, err := s.client.Do(ctx, apiclient.Request{
		Endpoint:     endpoint,
		Method:       http.MethodPost,
		Body:         credentials,
		HandleTokens: true,
	})
	if err != nil {
		return models.LoginResult{}, err
	}
	return apiclient.Decode[models.LoginResult](res)
}

// Login exchanges the credentials for a token pair and persists it with the admin profile.
func (s *Sessions) Login(ctx context.Context, emailAddress, password string) (models.LoginResult, error) {
	result, err := s.issueTokens(ctx, loginEndpoint, models.Credentials{EmailAddress: emailAddress, Password: password})
	if err != nil {
		return models.LoginResult{}, err
	}
	err = s.store.SetTokens(ctx, result.Tokens)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("cannot save the session tokens: %w", err)
	}
	err = s.store.SetAdmin(ctx, result.Admin)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("cannot save the admin profile: %w", err)
	}
	slog.Info("SESSIONS", "message", "logged in", "admin", result.Admin.ID, "session", s.store.Name())
	return result, nil
}

// Register creates a new admin. The session store is left untouched, the new admin logs in separately.
func (s *Sessions) Register(ctx context.Context, emailAddress, password string) (models.LoginResult, error) {
	result, err := s.issueTokens(ctx, registerEndpoint, models.Credentials{EmailAddress: emailAddress, Password: password})
	if err != nil {
		return models.LoginResult{}, err
	}
	slog.Info("SESSIONS", "message", "admin registered", "admin", result.Admin.ID)
	return result, nil
}

// Logout forgets the session tokens, the admin profile and the default credential.
func (s *Sessions) Logout(ctx context.Context) error {
	s.client.Coordinator().SetCredential("")
	return s.store.Clear(ctx)
}

func (s *Sessions) CurrentAdmin(ctx context.Context) (models.Admin, error) {
	admin, err := s.store.Admin(ctx)
	if errors.Is(err, apierrors.ErrAdminNotFound) {
		return models.Admin{}, apierrors.ErrNotLoggedIn
	}
	return admin, err
}

func NewSessions(client *apiclient.Client, store *sessionstore.Store) (*Sessions, error) {
	if client == nil {
		return &Sessions{}, fmt.Errorf("the api client cannot be nil")
	}
	if store == nil {
		return &Sessions{}, fmt.Errorf("the session store cannot be nil")
	}
	return &Sessions{client: client, store: store}, nil
}
