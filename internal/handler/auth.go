package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/identity-service/internal/middleware" // authenticated subject lookup
	"github.com/iliyamo/identity-service/internal/model"
	"github.com/iliyamo/identity-service/internal/service"
)

// requestTimeout bounds the store and notifier work of a single request.
const requestTimeout = 5 * time.Second

// Authenticator is the subset of the auth service the handlers call.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (model.Principal, service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (service.TokenPair, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	Signup(ctx context.Context, in service.SignupInput) (model.Principal, service.TokenPair, error)
	Me(ctx context.Context, id string) (model.Principal, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth Authenticator
	resp responder
}

func NewAuthHandler(auth Authenticator, tr Translator, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{Auth: auth, resp: responder{tr: tr, log: logger}}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type requestResetReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}
type signupReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	TokenType             string    `json:"token_type"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}
type signupResp struct {
	User model.Principal `json:"user"`
	tokenResp
}
type messageResp struct {
	Message string `json:"message"`
}

func newTokenResp(p service.TokenPair) tokenResp {
	return tokenResp{
		AccessToken:           p.Access.Value,
		RefreshToken:          p.Refresh.Value,
		TokenType:             "Bearer",
		AccessTokenExpiresAt:  p.Access.ExpiresAt,
		RefreshTokenExpiresAt: p.Refresh.ExpiresAt,
	}
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return h.resp.badBody(c)
	}
	if vs := validateLogin(req); len(vs) > 0 {
		return h.resp.invalid(c, vs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	_, pair, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return h.resp.fail(c, err)
	}
	return c.JSON(http.StatusOK, newTokenResp(pair))
}

// Refresh: exchange a refresh token for a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return h.resp.badBody(c)
	}
	if vs := validateRefresh(req); len(vs) > 0 {
		return h.resp.invalid(c, vs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return h.resp.fail(c, err)
	}
	return c.JSON(http.StatusOK, newTokenResp(pair))
}

// RequestPasswordReset: email a reset link to a registered address.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req requestResetReq
	if err := c.Bind(&req); err != nil {
		return h.resp.badBody(c)
	}
	if vs := validateRequestReset(req); len(vs) > 0 {
		return h.resp.invalid(c, vs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.RequestPasswordReset(ctx, req.Email); err != nil {
		return h.resp.fail(c, err)
	}
	return c.JSON(http.StatusAccepted, messageResp{
		Message: h.resp.tr.Translate(c.Request().Context(), "auth.requestPasswordNotice", nil),
	})
}

// ResetPassword: consume a reset token and set the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return h.resp.badBody(c)
	}
	if vs := validateResetPassword(req); len(vs) > 0 {
		return h.resp.invalid(c, vs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.ConfirmPasswordReset(ctx, req.Token, req.Password); err != nil {
		return h.resp.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Signup: create a principal and return it with a token pair.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return h.resp.badBody(c)
	}
	if vs := validateSignup(req); len(vs) > 0 {
		return h.resp.invalid(c, vs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, pair, err := h.Auth.Signup(ctx, service.SignupInput{Email: req.Email, Name: req.Name, Password: req.Password})
	if err != nil {
		return h.resp.fail(c, err)
	}
	return c.JSON(http.StatusCreated, signupResp{User: p, tokenResp: newTokenResp(pair)})
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c echo.Context) error {
	id := middleware.SubjectFrom(c)
	if id == "" {
		return h.resp.fail(c, service.ErrUnauthenticated)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Auth.Me(ctx, id)
	if err != nil {
		return h.resp.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
