package console

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/agencydesk/console/internal/apiclient"
	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/config"
	"github.com/agencydesk/console/internal/devbackend"
	"github.com/agencydesk/console/internal/models"
	"github.com/agencydesk/console/internal/sessionstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct-horse"
)

type testClock struct {
	lock *sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type testConsole struct {
	clock     *testClock
	store     *sessionstore.Store
	client    *apiclient.Client
	sessions  *Sessions
	agencies  *Agencies
	companies *Companies
}

func newTestConsole(t *testing.T) testConsole {
	clock := &testClock{lock: &sync.Mutex{}, now: time.Now().UTC().Truncate(time.Second)}
	server, err := devbackend.NewServer(
		devbackend.WithConfig(config.DevBackendConfig{
			Host:            "localhost",
			Port:            4000,
			JWTSecret:       "console-test-secret-0123456789abcdef",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			PurgeInterval:   time.Hour,
			SeedAdmin:       config.SeedAdminConfig{EmailAddress: adminEmail, Password: adminPassword},
		}),
		devbackend.WithClock(clock.Now),
	)
	require.NoError(t, err)
	backend := httptest.NewServer(devbackend.NewEcho(server, config.MonitoringConfig{}))
	t.Cleanup(backend.Close)

	store, err := sessionstore.NewStore(sessionstore.WithRepository(sessionstore.NewInMemoryRepository()))
	require.NoError(t, err)
	client, err := apiclient.NewClient(apiclient.WithBaseURL(backend.URL), apiclient.WithTokenStore(store))
	require.NoError(t, err)
	sessions, err := NewSessions(client, store)
	require.NoError(t, err)
	agencies, err := NewAgencies(client)
	require.NoError(t, err)
	companies, err := NewCompanies(client)
	require.NoError(t, err)
	return testConsole{
		clock:     clock,
		store:     store,
		client:    client,
		sessions:  sessions,
		agencies:  agencies,
		companies: companies,
	}
}

func agencyInput(name string) models.AgencyInput {
	return models.AgencyInput{
		License: models.License{
			LicenseNumber: "LIC-" + name,
			CompanyName:   name,
			EmailAddress:  "office@" + name + ".example.com",
			City:          "Denver",
			State:         "CO",
		},
		RegisteredAgentName: "Sam Carter",
	}
}

func TestLoginPersistsSession(t *testing.T) {
	ctx := context.Background()
	tc := newTestConsole(t)

	_, err := tc.sessions.CurrentAdmin(ctx)
	assert.ErrorIs(t, err, apierrors.ErrNotLoggedIn)

	result, err := tc.sessions.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	assert.Equal(t, adminEmail, result.Admin.EmailAddress)

	tokens, err := tc.store.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Tokens.Access.Value, tokens.Access.Value)
	assert.Equal(t, result.Tokens.Refresh.Value, tokens.Refresh.Value)
	assert.Equal(t, result.Tokens.Access.Value, tc.client.Coordinator().Credential())

	admin, err := tc.sessions.CurrentAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Admin, admin)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	tc := newTestConsole(t)

	_, err := tc.sessions.Login(ctx, adminEmail, "wrong-password")
	assert.ErrorIs(t, err, apierrors.ErrAPI)
	assert.Equal(t, 401, apierrors.StatusCode(err))
	_, err = tc.store.Tokens(ctx)
	assert.ErrorIs(t, err, apierrors.ErrTokensNotFound)

	_, err = tc.sessions.Login(ctx, "", adminPassword)
	assert.Error(t, err)
	_, err = tc.sessions.Login(ctx, adminEmail, "")
	assert.Error(t, err)
}

func TestRegisterDoesNotReplaceSession(t *testing.T) {
	ctx := context.Background()
	tc := newTestConsole(t)
	login, err := tc.sessions.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	result, err := tc.sessions.Register(ctx, "second@example.com", "another-password")
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", result.Admin.EmailAddress)
	assert.NotEmpty(t, result.Tokens.Access.Value)

	admin, err := tc.sessions.CurrentAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, login.Admin, admin)

	_, err = tc.sessions.Register(ctx, "second@example.com", "another-password")
	assert.ErrorIs(t, err, apierrors.ErrAPI)
	assert.Equal(t, 409, apierrors.StatusCode(err))
}

func TestAgencyWorkflow(t *testing.T) {
	ctx := context.Background()
	tc := newTestConsole(t)
	_, err := tc.sessions.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	created, err := tc.agencies.Create(ctx, agencyInput("acme"))
	require.NoError(t, err)
	assert.Equal(t, models.RecordPending, created.Status)
	_, err = tc.agencies.Create(ctx, agencyInput("initech"))
	require.NoError(t, err)

	page, err := tc.agencies.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "acme", page.Items[0].CompanyName)
	assert.Equal(t, float64(2), page.Metadata.Value("total"))
	assert.Equal(t, float64(DefaultLimit), page.Metadata.Value("limit"))

	update := agencyInput("acme")
	update.City = "Boulder"
	updated, err := tc.agencies.Update(ctx, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Boulder", updated.City)

	approved, err := tc.agencies.ChangeStatus(ctx, created.ID, models.NewStatusChange(models.DecisionApproved, false, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, models.RecordActive, approved.Status)
	rejected, err := tc.agencies.ChangeStatus(ctx, created.ID+1, models.NewStatusChange(models.DecisionRejected, true, []string{"Expired license"}, "no insurance"))
	require.NoError(t, err)
	assert.Equal(t, models.RecordRejected, rejected.Status)

	_, err = tc.agencies.ChangeStatus(ctx, created.ID, models.StatusChange{Status: "maybe"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apierrors.ErrAPI)

	require.NoError(t, tc.agencies.Delete(ctx, created.ID))
	err = tc.agencies.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, apierrors.ErrAPI)
	assert.Equal(t, 404, apierrors.StatusCode(err))

	page, err = tc.agencies.List(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestCompanyPasswordReset(t *testing.T) {
	ctx := context.Background()
	tc := newTestConsole(t)
	_, err := tc.sessions.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	company, err := tc.companies.Create(ctx, models.CompanyInput{
		License:                  agencyInput("globex").License,
		RegisteredAgentFirstName: "Robin",
		RegisteredAgentLastName:  "Hart",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hart", company.RegisteredAgentLastName)

	require.NoError(t, tc.companies.ResetPassword(ctx, company.ID, "a-new-password"))
	assert.Error(t, tc.companies.ResetPassword(ctx, company.ID, ""))
	err = tc.companies.ResetPassword(ctx, company.ID, "short")
	assert.ErrorIs(t, err, apierrors.ErrAPI)
	assert.Equal(t, 400, apierrors.StatusCode(err))
}

func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	ctx := context.Background()
	tc := newTestConsole(t)
	login, err := tc.sessions.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	tc.clock.Advance(20 * time.Minute)
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = tc.agencies.List(ctx, 1, 10)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	tokens, err := tc.store.Tokens(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.Access.Value, tokens.Access.Value)
	assert.NotEqual(t, login.Tokens.Refresh.Value, tokens.Refresh.Value)
	assert.Equal(t, tokens.Access.Value, tc.client.Coordinator().Credential())
	assert.False(t, tc.client.Coordinator().Refreshing())
}

func TestExpiredSessionRequiresLogin(t *testing.T) {
	ctx := context.Background()
	tc := newTestConsole(t)
	_, err := tc.sessions.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	tc.clock.Advance(25 * time.Hour)
	_, err = tc.agencies.List(ctx, 1, 10)
	assert.ErrorIs(t, err, apierrors.ErrAuthenticationExpired)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	tc := newTestConsole(t)
	_, err := tc.sessions.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	require.NoError(t, tc.sessions.Logout(ctx))
	assert.Empty(t, tc.client.Coordinator().Credential())
	_, err = tc.sessions.CurrentAdmin(ctx)
	assert.ErrorIs(t, err, apierrors.ErrNotLoggedIn)

	_, err = tc.agencies.List(ctx, 1, 10)
	assert.ErrorIs(t, err, apierrors.ErrAuthenticationExpired)
	assert.ErrorIs(t, err, apierrors.ErrNotLoggedIn)

	require.NoError(t, tc.sessions.Logout(ctx))
}

func TestNewServicesValidation(t *testing.T) {
	_, err := NewSessions(nil, nil)
	assert.Error(t, err)
	_, err = NewAgencies(nil)
	assert.Error(t, err)
	_, err = NewCompanies(nil)
	assert.Error(t, err)
}
