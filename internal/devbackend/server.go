// Package devbackend is a local implementation of the admin backend. It speaks the same envelope
// contract as the production API and is used for development and end-to-end tests.
package devbackend

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/config"
	"github.com/agencydesk/console/internal/models"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const refreshTokenLength int = 32

type adminRecord struct {
	admin        models.Admin
	passwordHash string
}

type companyRecord struct {
	company      models.Company
	passwordHash string
}

// Server holds the state of the dev backend and serves its endpoints.
type Server struct {
	config     *config.DevBackendConfig
	adminsLock *sync.RWMutex
	admins     map[string]adminRecord
	agencies   *recordStore[models.Agency]
	companies  *recordStore[companyRecord]
	tokens     *tokenAuthority
	requestIDs models.IDGenerator
	now        func() time.Time
}

func (s *Server) RegisterHandlers(server *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	e := server.Group("")
	e.Use(commonMiddlewares...)
	e.POST("/api/admins/login", s.PostLogin)
	e.POST("/api/admins", s.PostAdmin)
	e.POST("/auth/refresh", s.PostRefresh)

	api := e.Group("/api", s.RequireAdmin)
	api.GET("/admins/me", s.GetMe)
	api.GET("/agencies", s.GetAgencies)
	api.POST("/agencies", s.PostAgency)
	api.PUT("/agencies/:id", s.PutAgency)
	api.DELETE("/agencies/:id", s.DeleteAgency)
	api.PUT("/agencies/:id/status", s.PutAgencyStatus)
	api.GET("/companies", s.GetCompanies)
	api.POST("/companies", s.PostCompany)
	api.PUT("/companies/:id", s.PutCompany)
	api.DELETE("/companies/:id", s.DeleteCompany)
	api.PUT("/companies/:id/status", s.PutCompanyStatus)
	api.PUT("/companies/:id/password", s.PutCompanyPassword)
}

func (s *Server) createAdmin(credentials models.Credentials) (models.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(credentials.EmailAddress))
	if email == "" || !strings.Contains(email, "@") {
		return models.Admin{}, fmt.Errorf("a valid email address is required")
	}
	err := validatePassword(credentials.Password)
	if err != nil {
		return models.Admin{}, err
	}
	hash, err := hashPassword(credentials.Password)
	if err != nil {
		return models.Admin{}, err
	}
	s.adminsLock.Lock()
	defer s.adminsLock.Unlock()
	if _, found := s.admins[email]; found {
		return models.Admin{}, errAdminExists
	}
	admin := models.Admin{
		ID:           uuid.NewString(),
		EmailAddress: email,
		Role:         models.RoleDefaultUser,
		Status:       models.AdminActive,
	}
	s.admins[email] = adminRecord{admin: admin, passwordHash: hash}
	return admin, nil
}

// authenticate returns the admin matching the credentials.
func (s *Server) authenticate(credentials models.Credentials) (models.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(credentials.EmailAddress))
	s.adminsLock.RLock()
	record, found := s.admins[email]
	s.adminsLock.RUnlock()
	if !found {
		return models.Admin{}, errBadCredentials
	}
	ok, err := verifyPassword(credentials.Password, record.passwordHash)
	if err != nil {
		return models.Admin{}, err
	}
	if !ok {
		return models.Admin{}, errBadCredentials
	}
	if record.admin.Status != models.AdminActive {
		return models.Admin{}, errAdminInactive
	}
	return record.admin, nil
}

func (s *Server) adminByID(id string) (models.Admin, error) {
	s.adminsLock.RLock()
	defer s.adminsLock.RUnlock()
	for _, record := range s.admins {
		if record.admin.ID == id {
			return record.admin, nil
		}
	}
	return models.Admin{}, apierrors.ErrAdminNotFound
}

// PurgeExpiredTokens removes the refresh tokens that expired.
func (s *Server) PurgeExpiredTokens() int {
	purged := s.tokens.purgeExpired()
	slog.Info("DEV BACKEND", "message", "purged expired refresh tokens", "purged", purged)
	return purged
}

// GetScheduler returns a scheduler running PurgeExpiredTokens at the configured interval.
func (s *Server) GetScheduler() (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)
	purgeTask := func(job gocron.Job) {
		purged := s.PurgeExpiredTokens()
		slog.Debug("DEV BACKEND", "message", "purge job finished", "purged", purged, "nextRun", job.NextRun())
	}
	_, err := scheduler.Every(s.config.PurgeInterval).DoWithJobDetails(purgeTask)
	if err != nil {
		return nil, err
	}
	return scheduler, nil
}

type ServerOption func(*Server) error

func WithConfig(devConfig config.DevBackendConfig) ServerOption {
	return func(s *Server) error {
		s.config = &devConfig
		return nil
	}
}

// WithClock replaces the wall clock used for token expiry.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) error {
		s.now = now
		return nil
	}
}

// NewServer creates the dev backend. The seed admin from the configuration is created right away.
func NewServer(options ...ServerOption) (*Server, error) {
	server := Server{
		adminsLock: &sync.RWMutex{},
		admins:     map[string]adminRecord{},
		agencies:   newRecordStore[models.Agency](),
		companies:  newRecordStore[companyRecord](),
		requestIDs: models.ULIDGenerator{},
		now:        time.Now,
	}
	for _, opt := range options {
		err := opt(&server)
		if err != nil {
			return &Server{}, err
		}
	}
	if server.config == nil {
		return &Server{}, fmt.Errorf("dev backend config not provided")
	}
	if server.config.JWTSecret == "" {
		return &Server{}, fmt.Errorf("the jwt secret cannot be empty")
	}
	if server.config.AccessTokenTTL <= 0 || server.config.RefreshTokenTTL <= 0 {
		return &Server{}, fmt.Errorf("the token TTLs need to be greater than 0")
	}
	server.tokens = &tokenAuthority{
		lock:            &sync.Mutex{},
		secret:          []byte(server.config.JWTSecret),
		accessTokenTTL:  server.config.AccessTokenTTL,
		refreshTokenTTL: server.config.RefreshTokenTTL,
		grants:          map[string]refreshGrant{},
		tokenIDs:        models.ULIDGenerator{},
		refreshTokens:   models.NewRandomGenerator(refreshTokenLength),
		now:             server.now,
	}
	seed := server.config.SeedAdmin
	if seed.EmailAddress != "" {
		admin, err := server.createAdmin(models.Credentials{EmailAddress: seed.EmailAddress, Password: string(seed.Password)})
		if err != nil {
			return &Server{}, fmt.Errorf("cannot create the seed admin: %w", err)
		}
		slog.Info("DEV BACKEND", "message", "seed admin created", "admin", admin.ID, "emailAddress", admin.EmailAddress)
	}
	return &server, nil
}
