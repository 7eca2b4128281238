// Package apiclient sends authenticated requests to the admin backend and keeps the session alive
// by refreshing the token pair when the backend reports that the access token expired.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/config"
	"github.com/agencydesk/console/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const RequestIDHeader string = "X-Request-ID"
const DefaultRefreshEndpoint string = "/auth/refresh"
const defaultTimeout time.Duration = 30 * time.Second

// TokenStore is where the client reads the session tokens and saves refreshed ones.
type TokenStore interface {
	Tokens(ctx context.Context) (models.TokenPair, error)
	SetTokens(ctx context.Context, tokens models.TokenPair) error
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Client is the authenticated request pipeline.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	store           TokenStore
	coordinator     *RefreshCoordinator
	limiter         *rate.Limiter
	requestIDs      models.IDGenerator
	reporter        ErrorReporter
	refreshEndpoint string
}

func (c *Client) Coordinator() *RefreshCoordinator {
	return c.coordinator
}

// Do sends the request and normalizes the envelope of the response. When an authenticated call
// is rejected with 401 the session is refreshed once and the call replayed with the new token.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	res, err := c.do(ctx, req)
	if err != nil {
		c.logError(ctx, req, err)
	}
	return res, err
}

func (c *Client) do(ctx context.Context, req Request) (Response, error) {
	token := ""
	if req.RequireAuth {
		var err error
		token, err = c.accessToken(ctx)
		if err != nil {
			return Response{}, err
		}
	}
	res, status, err := c.execute(ctx, req, token)
	if !req.RequireAuth || status != http.StatusUnauthorized {
		return res, err
	}
	slog.Debug("API CLIENT", "message", "access token rejected, refreshing the session", "endpoint", req.Endpoint)
	newToken, err := c.coordinator.Refresh(ctx, c.refreshTokens)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return Response{}, fmt.Errorf("waiting for the session refresh: %w", err)
		}
		return Response{}, apierrors.NewAuthenticationExpired(err)
	}
	res, status, err = c.execute(ctx, req, newToken)
	if status == http.StatusUnauthorized {
		if err == nil {
			err = fmt.Errorf("the refreshed access token was rejected")
		}
		return Response{}, apierrors.NewAuthenticationExpired(err)
	}
	return res, err
}

// accessToken returns the stored access token, falling back to the default credential.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.store == nil {
		return c.coordinator.Credential(), nil
	}
	tokens, err := c.store.Tokens(ctx)
	if err != nil && !errors.Is(err, apierrors.ErrTokensNotFound) {
		return "", fmt.Errorf("cannot read the session tokens: %w", err)
	}
	if err == nil && tokens.Access.Value != "" {
		return tokens.Access.Value, nil
	}
	return c.coordinator.Credential(), nil
}

// refreshTokens exchanges the stored refresh token for a new pair and saves it.
func (c *Client) refreshTokens(ctx context.Context) (string, error) {
	if c.store == nil {
		return "", apierrors.ErrNotLoggedIn
	}
	tokens, err := c.store.Tokens(ctx)
	if err != nil {
		if errors.Is(err, apierrors.ErrTokensNotFound) {
			return "", apierrors.ErrNotLoggedIn
		}
		return "", err
	}
	if tokens.Refresh.Value == "" {
		return "", apierrors.ErrNotLoggedIn
	}
	res, _, err := c.execute(ctx, Request{
		Endpoint:     c.refreshEndpoint,
		Method:       http.MethodPost,
		Body:         refreshRequest{RefreshToken: tokens.Refresh.Value},
		HandleTokens: true,
	}, "")
	if err != nil {
		return "", err
	}
	err = c.store.SetTokens(ctx, *res.Tokens)
	if err != nil {
		return "", fmt.Errorf("cannot save the refreshed tokens: %w", err)
	}
	slog.Info("API CLIENT", "message", "session refreshed", "accessExpiresAt", res.Tokens.Access.ExpiresAt)
	return res.Tokens.Access.Value, nil
}

// execute performs a single round trip. The returned status is 0 when no response was received.
func (c *Client) execute(ctx context.Context, req Request, token string) (Response, int, error) {
	httpReq, err := c.newHTTPRequest(ctx, req, token)
	if err != nil {
		return Response{}, 0, err
	}
	if c.limiter != nil {
		err = c.limiter.Wait(ctx)
		if err != nil {
			return Response{}, 0, apierrors.NewTransportFailure(0, err)
		}
	}
	httpRes, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, 0, apierrors.NewTransportFailure(0, err)
	}
	defer httpRes.Body.Close()
	status := httpRes.StatusCode
	if status < 200 || status >= 500 {
		_, _ = io.Copy(io.Discard, httpRes.Body)
		return Response{}, status, apierrors.NewTransportFailure(
			status,
			fmt.Errorf("the backend responded with %s", httpRes.Status),
		)
	}
	envelope := models.Envelope{}
	err = json.NewDecoder(httpRes.Body).Decode(&envelope)
	if err != nil {
		return Response{}, status, apierrors.NewMalformedResponse(status, err)
	}
	res, err := c.normalize(req, envelope, status)
	return res, status, err
}

func (c *Client) normalize(req Request, envelope models.Envelope, status int) (Response, error) {
	if !req.validator()(envelope) {
		return Response{}, newEnvelopeError(envelope, status)
	}
	if !envelope.HasData() {
		return Response{}, apierrors.NewMalformedResponse(status, fmt.Errorf("the envelope carries no data"))
	}
	res := Response{
		Data:       envelope.Data,
		Metadata:   envelope.Metadata,
		Links:      envelope.Links,
		StatusCode: status,
	}
	if !req.HandleTokens {
		return res, nil
	}
	payload, err := Decode[tokensPayload](res)
	if err != nil {
		return Response{}, err
	}
	if payload.Tokens == nil || payload.Tokens.Access.Value == "" {
		return Response{}, apierrors.NewMalformedResponse(status, fmt.Errorf("the payload carries no tokens"))
	}
	c.coordinator.SetCredential(payload.Tokens.Access.Value)
	res.Tokens = payload.Tokens
	return res, nil
}

func newEnvelopeError(envelope models.Envelope, status int) *apierrors.APIError {
	if envelope.Error == nil {
		return apierrors.NewAPIError("", status, nil)
	}
	statusCode := envelope.Error.Code
	if statusCode == 0 {
		statusCode = status
	}
	apiErr := apierrors.NewAPIError(envelope.Error.Message, statusCode, envelope.Error.Details)
	apiErr.Code = envelope.Error.Code
	return apiErr
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL.JoinPath(req.Endpoint)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}
	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("cannot encode the request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	requestID, err := c.requestIDs.ID()
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	if token != "" {
		bearer := oauth2.Token{AccessToken: token, TokenType: "Bearer"}
		bearer.SetAuthHeader(httpReq)
	}
	return httpReq, nil
}

func (c *Client) logError(ctx context.Context, req Request, err error) {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("API Error", "error", err, "endpoint", req.Endpoint, "method", req.Method)
		c.report(ctx, err)
		return
	}
	slog.Error(
		"API Error",
		"message",
		apiErr.Message,
		"statusCode",
		apiErr.StatusCode,
		"errorData",
		apiErr.Details,
		"endpoint",
		req.Endpoint,
		"method",
		req.Method,
	)
	if !errors.Is(err, apierrors.ErrAPI) {
		c.report(ctx, err)
	}
}

func (c *Client) report(ctx context.Context, err error) {
	if c.reporter == nil {
		return
	}
	c.reporter.Report(ctx, err)
}

// Get sends an authenticated GET request.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (Response, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodGet, Query: query, RequireAuth: true})
}

// Post sends an authenticated POST request.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (Response, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodPost, Body: body, RequireAuth: true})
}

// Put sends an authenticated PUT request.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (Response, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodPut, Body: body, RequireAuth: true})
}

// Delete sends an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) (Response, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodDelete, RequireAuth: true})
}

type ClientOption func(*Client) error

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) error {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return err
		}
		c.baseURL = parsed
		return nil
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		c.httpClient = httpClient
		return nil
	}
}

func WithTokenStore(store TokenStore) ClientOption {
	return func(c *Client) error {
		c.store = store
		return nil
	}
}

// WithCoordinator shares a refresh coordinator between clients of the same session.
func WithCoordinator(coordinator *RefreshCoordinator) ClientOption {
	return func(c *Client) error {
		c.coordinator = coordinator
		return nil
	}
}

func WithRateLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *Client) error {
		c.limiter = limiter
		return nil
	}
}

func WithRequestIDGenerator(generator models.IDGenerator) ClientOption {
	return func(c *Client) error {
		c.requestIDs = generator
		return nil
	}
}

func WithErrorReporter(reporter ErrorReporter) ClientOption {
	return func(c *Client) error {
		c.reporter = reporter
		return nil
	}
}

func WithRefreshEndpoint(endpoint string) ClientOption {
	return func(c *Client) error {
		if endpoint == "" {
			return fmt.Errorf("the refresh endpoint cannot be empty")
		}
		c.refreshEndpoint = endpoint
		return nil
	}
}

// WithConfig applies the base url, timeout and rate limits from the configuration.
func WithConfig(apiConfig config.APIConfig) ClientOption {
	return func(c *Client) error {
		if apiConfig.BaseURL == nil {
			return fmt.Errorf("the api base url is not set")
		}
		baseURL := *apiConfig.BaseURL
		c.baseURL = &baseURL
		timeout := apiConfig.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
		if apiConfig.RateLimits.Enabled {
			c.limiter = rate.NewLimiter(rate.Limit(apiConfig.RateLimits.Rate), apiConfig.RateLimits.Burst)
		}
		return nil
	}
}

func NewClient(options ...ClientOption) (*Client, error) {
	c := Client{
		httpClient:      &http.Client{Timeout: defaultTimeout},
		requestIDs:      models.ULIDGenerator{},
		refreshEndpoint: DefaultRefreshEndpoint,
	}
	for _, opt := range options {
		err := opt(&c)
		if err != nil {
			return &Client{}, err
		}
	}
	if c.baseURL == nil {
		return &Client{}, fmt.Errorf("the base url of the backend is not set")
	}
	if c.baseURL.Scheme != "http" && c.baseURL.Scheme != "https" {
		return &Client{}, fmt.Errorf("the base url %q must use http or https", c.baseURL.String())
	}
	if c.httpClient == nil {
		return &Client{}, fmt.Errorf("the http client cannot be nil")
	}
	if c.coordinator == nil {
		c.coordinator = NewRefreshCoordinator()
	}
	return &c, nil
}
