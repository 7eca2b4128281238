package apiclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agencydesk/console/internal/apierrors"
	"golang.org/x/oauth2"
)

const expiryMargin time.Duration = 10 * time.Second

type sessionTokenSource struct {
	ctx    context.Context
	client *Client
}

// Token returns the stored pair as an oauth2 token, refreshing the session first when the access
// token is about to expire.
func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	if s.client.store == nil {
		return nil, apierrors.ErrNotLoggedIn
	}
	tokens, err := s.client.store.Tokens(s.ctx)
	if errors.Is(err, apierrors.ErrTokensNotFound) {
		return nil, apierrors.ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	if tokens.Access.ExpiresSoon(expiryMargin) {
		_, err = s.client.coordinator.Refresh(s.ctx, s.client.refreshTokens)
		if err != nil {
			return nil, apierrors.NewAuthenticationExpired(err)
		}
		tokens, err = s.client.store.Tokens(s.ctx)
		if err != nil {
			return nil, err
		}
	}
	if tokens.Access.Value == "" {
		return nil, fmt.Errorf("the session has no access token")
	}
	return &oauth2.Token{
		AccessToken:  tokens.Access.Value,
		TokenType:    "Bearer",
		RefreshToken: tokens.Refresh.Value,
		Expiry:       tokens.Access.ExpiresAt,
	}, nil
}

// TokenSource exposes the session tokens to code that expects an oauth2.TokenSource.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return sessionTokenSource{ctx: ctx, client: c}
}
