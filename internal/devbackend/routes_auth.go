package devbackend

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agencydesk/console/internal/models"
	"github.com/labstack/echo/v4"
)

const AdminIDCtxKey string = "adminID"

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

type tokensData struct {
	Tokens models.TokenPair `json:"tokens"`
}

func (s *Server) PostLogin(c echo.Context) error {
	credentials := models.Credentials{}
	if err := c.Bind(&credentials); err != nil {
		return badRequest(err)
	}
	admin, err := s.authenticate(credentials)
	if errors.Is(err, errBadCredentials) || errors.Is(err, errAdminInactive) {
		return failWith(http.StatusUnauthorized, err.Error(), nil)
	}
	if err != nil {
		return err
	}
	tokens, err := s.tokens.issue(admin.ID)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, models.LoginResult{Tokens: tokens, Admin: admin})
}

func (s *Server) PostAdmin(c echo.Context) error {
	credentials := models.Credentials{}
	if err := c.Bind(&credentials); err != nil {
		return badRequest(err)
	}
	admin, err := s.createAdmin(credentials)
	if errors.Is(err, errAdminExists) {
		return failWith(http.StatusConflict, err.Error(), map[string]any{"emailAddress": credentials.EmailAddress})
	}
	if err != nil {
		return badRequest(err)
	}
	tokens, err := s.tokens.issue(admin.ID)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, models.LoginResult{Tokens: tokens, Admin: admin})
}

func (s *Server) PostRefresh(c echo.Context) error {
	body := refreshBody{}
	if err := c.Bind(&body); err != nil {
		return badRequest(err)
	}
	if body.RefreshToken == "" {
		return failWith(http.StatusBadRequest, "the refresh token is required", nil)
	}
	adminID, tokens, err := s.tokens.rotate(body.RefreshToken)
	if errors.Is(err, errInvalidRefreshToken) {
		return failWith(http.StatusUnauthorized, err.Error(), nil)
	}
	if err != nil {
		return err
	}
	slog.Debug("DEV BACKEND", "message", "tokens rotated", "admin", adminID, "requestID", c.Response().Header().Get(echo.HeaderXRequestID))
	return respondData(c, http.StatusOK, tokensData{Tokens: tokens})
}

// RequireAdmin rejects requests without a valid bearer access token.
func (s *Server) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
			return failWith(http.StatusUnauthorized, "please authenticate", nil)
		}
		adminID, err := s.tokens.verify(token)
		if err != nil {
			return failWith(http.StatusUnauthorized, errInvalidAccessToken.Error(), nil)
		}
		c.Set(AdminIDCtxKey, adminID)
		return next(c)
	}
}

func (s *Server) GetMe(c echo.Context) error {
	adminID, _ := c.Get(AdminIDCtxKey).(string)
	admin, err := s.adminByID(adminID)
	if err != nil {
		return failWith(http.StatusNotFound, err.Error(), nil)
	}
	return respondData(c, http.StatusOK, admin)
}
