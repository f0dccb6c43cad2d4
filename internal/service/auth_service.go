// Package service implements credential validation, token issuance and the
// password-reset handshake. It depends on its collaborators only through the
// interfaces in ports.go.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/identity-service/internal/metrics"
	"github.com/iliyamo/identity-service/internal/model"
	"github.com/iliyamo/identity-service/internal/repository"
	"github.com/iliyamo/identity-service/internal/utils"
)

// TokenPair is the result of a successful login, signup or refresh.
type TokenPair struct {
	Access  utils.Token
	Refresh utils.Token
}

// SignupInput carries an already validated registration request.
type SignupInput struct {
	Email    string
	Name     string
	Password string
}

// Options wires an AuthService. Users, Access, Refresh, Notifier and
// Messages are required; the rest have defaults.
type Options struct {
	Users    CredentialStore
	Access   TokenCodec
	Refresh  TokenCodec
	Notifier Notifier
	Messages Translator

	Lock    ResetLocker // optional
	Metrics Recorder    // optional
	Logger  *slog.Logger

	ResetTTL   time.Duration
	ResetURL   string
	BcryptCost int
	Now        func() time.Time
}

// AuthService is safe for concurrent use; it holds no mutable state.
type AuthService struct {
	users    CredentialStore
	access   TokenCodec
	refresh  TokenCodec
	notifier Notifier
	messages Translator
	lock     ResetLocker
	metrics  Recorder
	log      *slog.Logger

	resetTTL time.Duration
	resetURL string
	cost     int
	now      func() time.Time

	// dummyHash is hashed at cost so unknown emails burn the same work.
	dummyHash string
}

func NewAuthService(opts Options) (*AuthService, error) {
	switch {
	case opts.Users == nil:
		return nil, errors.New("auth service: credential store is required")
	case opts.Access == nil || opts.Refresh == nil:
		return nil, errors.New("auth service: access and refresh codecs are required")
	case opts.Notifier == nil:
		return nil, errors.New("auth service: notifier is required")
	case opts.Messages == nil:
		return nil, errors.New("auth service: translator is required")
	case strings.TrimSpace(opts.ResetURL) == "":
		return nil, errors.New("auth service: reset url is required")
	}
	if _, err := url.Parse(opts.ResetURL); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("reset_url", opts.ResetURL).Wrap(err)
	}

	s := &AuthService{
		users:    opts.Users,
		access:   opts.Access,
		refresh:  opts.Refresh,
		notifier: opts.Notifier,
		messages: opts.Messages,
		lock:     opts.Lock,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		resetTTL: opts.ResetTTL,
		resetURL: opts.ResetURL,
		cost:     opts.BcryptCost,
		now:      opts.Now,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.resetTTL <= 0 {
		s.resetTTL = time.Hour
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	dummy, err := utils.DummyHash(s.cost)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").With("bcrypt_cost", s.cost).Wrap(err)
	}
	s.dummyHash = dummy
	return s, nil
}

// ValidateCredentials returns the sanitized principal for email/password.
// Every failure reason yields ErrInvalidCredentials, and every path performs
// one bcrypt comparison.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (model.Principal, error) {
	p, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(s.dummyHash, password)
			return model.Principal{}, ErrInvalidCredentials
		}
		return model.Principal{}, storeErr("FindByEmail", err)
	}
	if p.PasswordHash == nil || *p.PasswordHash == "" {
		utils.BurnPasswordCheck(s.dummyHash, password)
		return model.Principal{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(*p.PasswordHash, password) || !p.IsActive {
		return model.Principal{}, ErrInvalidCredentials
	}
	return p.Sanitized(), nil
}

// IssueTokenPair signs a fresh access and refresh token for p.
func (s *AuthService) IssueTokenPair(p model.Principal) (TokenPair, error) {
	claims := utils.Claims{
		Name:             p.NameValue(),
		Email:            p.EmailValue(),
		RegisteredClaims: jwt.RegisteredClaims{Subject: p.ID},
	}
	access, err := s.access.Issue(claims)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_TOKEN_SIGN_FAILED").With("token", "access").Wrap(err)
	}
	refresh, err := s.refresh.Issue(claims)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_TOKEN_SIGN_FAILED").With("token", "refresh").Wrap(err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Login validates credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.Principal, TokenPair, error) {
	p, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		s.observe("login", err)
		return model.Principal{}, TokenPair{}, err
	}
	pair, err := s.IssueTokenPair(p)
	s.observe("login", err)
	if err != nil {
		return model.Principal{}, TokenPair{}, err
	}
	return p, pair, nil
}

// Refresh exchanges a valid refresh token for a brand-new pair. The old
// refresh token stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	pair, err := s.doRefresh(ctx, raw)
	s.observe("refresh", err)
	return pair, err
}

func (s *AuthService) doRefresh(ctx context.Context, raw string) (TokenPair, error) {
	claims, err := s.refresh.Verify(raw)
	if err != nil {
		key := "auth.tokenInvalid"
		if errors.Is(err, utils.ErrTokenExpired) {
			key = "auth.tokenExpired"
		}
		return TokenPair{}, &Error{Kind: KindRefreshInvalid, Key: key, Err: err}
	}

	p, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, &Error{Kind: KindRefreshInvalid, Key: "auth.userNotIdentified", Err: err}
		}
		return TokenPair{}, storeErr("FindByID", err)
	}
	if !p.IsActive {
		return TokenPair{}, &Error{Kind: KindRefreshInvalid, Key: "auth.userNotIdentified"}
	}
	return s.IssueTokenPair(p.Sanitized())
}

// RequestPasswordReset stores a new reset token for the principal owning
// email and sends the reset link. A previous pending token is replaced.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	err := s.doRequestPasswordReset(ctx, email)
	s.observe("request_password_reset", err)
	return err
}

func (s *AuthService) doRequestPasswordReset(ctx context.Context, email string) error {
	p, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPrincipalNotFound
		}
		return storeErr("FindByEmail", err)
	}
	if !p.IsActive {
		return ErrPrincipalNotFound
	}

	raw, hash, err := utils.NewResetToken()
	if err != nil {
		return oops.Code("AUTH_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	expires := s.now().UTC().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, p.ID, hash, expires); err != nil {
		return storeErr("SetResetToken", err)
	}

	link, err := s.resetLink(raw)
	if err != nil {
		return oops.Code("AUTH_RESET_LINK_FAILED").Wrap(err)
	}
	args := map[string]string{
		"name":      p.NameValue(),
		"resetUrl":  link,
		"expiresIn": strconv.Itoa(int(s.resetTTL.Hours())),
	}
	subject := s.messages.Translate(ctx, "auth.requestPasswordEmail.subject", args)
	text := s.messages.Translate(ctx, "auth.requestPasswordEmail.text", args)
	html := s.messages.Translate(ctx, "auth.requestPasswordEmail.html", args)

	if err := s.notifier.Send(ctx, p.EmailValue(), subject, text, html); err != nil {
		s.log.WarnContext(ctx, "password reset email not delivered", "user_id", p.ID, "error", err)
		return &Error{Kind: KindDeliveryFailed, Key: "auth.deliveryFailed", Err: err}
	}
	s.log.InfoContext(ctx, "password reset requested", "user_id", p.ID, "expires_at", expires)
	return nil
}

// ConfirmPasswordReset sets a new password for the holder of token and
// clears the pending reset. The token works at most once.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	err := s.doConfirmPasswordReset(ctx, token, newPassword)
	s.observe("confirm_password_reset", err)
	return err
}

func (s *AuthService) doConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidOrExpiredResetToken
	}
	hash := utils.HashToken(token)

	if s.lock != nil {
		claimed, err := s.lock.Acquire(ctx, hash)
		switch {
		case err != nil:
			// the conditional update below still guarantees single use
			s.log.WarnContext(ctx, "reset lock unavailable", "error", err)
		case !claimed:
			return ErrInvalidOrExpiredResetToken
		default:
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), hash); err != nil {
					s.log.WarnContext(ctx, "reset lock release failed", "error", err)
				}
			}()
		}
	}

	p, err := s.users.FindByResetToken(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredResetToken
		}
		return storeErr("FindByResetToken", err)
	}
	now := s.now().UTC()
	if !p.HasPendingReset(now) {
		return ErrInvalidOrExpiredResetToken
	}

	pwHash, err := utils.HashPassword(newPassword, s.cost)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	ok, err := s.users.ConsumeResetToken(ctx, p.ID, hash, pwHash, now)
	if err != nil {
		return storeErr("ConsumeResetToken", err)
	}
	if !ok {
		return ErrInvalidOrExpiredResetToken
	}
	s.log.InfoContext(ctx, "password reset completed", "user_id", p.ID)
	return nil
}

// Signup creates a password principal and logs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (model.Principal, TokenPair, error) {
	p, pair, err := s.doSignup(ctx, in)
	s.observe("signup", err)
	return p, pair, err
}

func (s *AuthService) doSignup(ctx context.Context, in SignupInput) (model.Principal, TokenPair, error) {
	pwHash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return model.Principal{}, TokenPair{}, oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	p, err := s.users.Create(ctx, model.Principal{
		Email:        model.StrPtr(repository.NormalizeEmail(in.Email)),
		Name:         model.StrPtr(strings.TrimSpace(in.Name)),
		PasswordHash: &pwHash,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.Principal{}, TokenPair{}, ErrEmailTaken
		}
		return model.Principal{}, TokenPair{}, storeErr("Create", err)
	}
	p = p.Sanitized()
	pair, err := s.IssueTokenPair(p)
	if err != nil {
		return model.Principal{}, TokenPair{}, err
	}
	return p, pair, nil
}

// Me returns the sanitized principal for an authenticated subject.
func (s *AuthService) Me(ctx context.Context, id string) (model.Principal, error) {
	p, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Principal{}, ErrPrincipalNotFound
		}
		return model.Principal{}, storeErr("FindByID", err)
	}
	if !p.IsActive {
		return model.Principal{}, ErrPrincipalNotFound
	}
	return p.Sanitized(), nil
}

// PurgeExpiredResets clears reset pairs that can no longer be used.
func (s *AuthService) PurgeExpiredResets(ctx context.Context) (int64, error) {
	n, err := s.users.PurgeExpiredResets(ctx, s.now().UTC())
	if err != nil {
		return 0, storeErr("PurgeExpiredResets", err)
	}
	return n, nil
}

func (s *AuthService) resetLink(token string) (string, error) {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *AuthService) observe(operation string, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.Observe(operation, metrics.OutcomeSuccess)
	case KindOf(err) == KindInternal:
		s.metrics.Observe(operation, metrics.OutcomeError)
	default:
		s.metrics.Observe(operation, metrics.OutcomeFailure)
	}
}

func storeErr(operation string, err error) error {
	return oops.Code("AUTH_STORE_FAILED").With("operation", operation).Wrap(err)
}
