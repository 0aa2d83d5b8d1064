package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/oauth"
	"github.com/iliyamo/michels-travel/internal/queue"
	"github.com/iliyamo/michels-travel/internal/repository"
	"github.com/iliyamo/michels-travel/internal/utils"
)

const maxFullNameLen = 128

type UserStore interface {
	Create(ctx context.Context, email, password, fullName, role string, cost int) (uint64, error)
	CreateOAuth(ctx context.Context, email, fullName, provider, subject string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByOAuth(ctx context.Context, provider, subject string) (model.User, error)
	LinkOAuth(ctx context.Context, id uint64, provider, subject string) error
	UpdateFullName(ctx context.Context, id uint64, fullName string) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Refresh(ctx context.Context, raw string) (Session, error)
	RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error)
	Logout(ctx context.Context, userID uint64, refresh string) error
	Me(ctx context.Context, userID uint64) (model.User, error)
	UpdateProfile(ctx context.Context, userID uint64, fullName string) (model.User, error)
	OAuthLogin(ctx context.Context, id oauth.Identity) (Session, error)
}

// AuthConfig carries the token and hashing settings.
type AuthConfig struct {
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// Session is an authenticated user with a fresh token pair.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthConfig
	events events
	log    *logger.Logger
}

func NewAuthService(users UserStore, tokens TokenStore, cfg AuthConfig, pub queue.Publisher, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Discard()
	}
	return &AuthService{users: users, tokens: tokens, cfg: cfg, events: events{pub: pub, log: log}, log: log}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	bad := fields{}
	if in.FullName == "" || utf8.RuneCountInString(in.FullName) > maxFullNameLen {
		bad.add("full_name", "must be between 1 and 128 characters")
	}
	if !validEmail(in.Email) {
		bad.add("email", "must be a valid email address")
	}
	if err := utils.CheckPasswordStrength(in.Password); err != nil {
		bad.add("password", err.Error())
	}
	if err := bad.err(); err != nil {
		return Session{}, err
	}

	id, err := s.users.Create(ctx, in.Email, in.Password, in.FullName, model.RoleCustomer, s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, err
	}
	u := model.User{ID: id, Email: in.Email, FullName: in.FullName, Role: model.RoleCustomer, IsActive: true}
	sess, err := s.issue(ctx, u)
	if err != nil {
		return Session{}, err
	}
	s.events.publish(ctx, model.Event{Type: model.EventUserRegistered, UserID: id, Email: u.Email})
	return sess, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Session{}, ErrAccountDisabled
	}
	return s.issue(ctx, u)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked, so it works once.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	oldHash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	u, err := s.refreshUser(ctx, oldHash)
	if err != nil {
		return Session{}, err
	}
	access, err := utils.NewAccessToken(s.cfg.Secret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	next, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.Rotate(ctx, u.ID, oldHash, utils.HashRefreshRaw(next.Raw), next.Exp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidRefresh
		}
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: next}, nil
}

// RefreshAccess issues an access token and leaves the refresh token valid.
func (s *AuthService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	u, err := s.refreshUser(ctx, utils.HashRefreshRaw(strings.TrimSpace(raw)))
	if err != nil {
		return utils.AccessToken{}, err
	}
	return utils.NewAccessToken(s.cfg.Secret, u.ID, u.Role, s.cfg.AccessTTLMin)
}

func (s *AuthService) refreshUser(ctx context.Context, hash string) (model.User, error) {
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrInvalidRefresh
		}
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrInvalidRefresh
		}
		return model.User{}, err
	}
	if !u.IsActive {
		return model.User{}, ErrAccountDisabled
	}
	return u, nil
}

// Logout revokes the given refresh token, or every token of userID when no
// refresh token is given.
func (s *AuthService) Logout(ctx context.Context, userID uint64, refresh string) error {
	refresh = strings.TrimSpace(refresh)
	switch {
	case refresh != "":
		hash := utils.HashRefreshRaw(refresh)
		if _, err := s.tokens.ValidateRefresh(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		return s.tokens.RevokeByHash(ctx, hash)
	case userID != 0:
		return s.tokens.RevokeAllForUser(ctx, userID)
	}
	return &ValidationError{Fields: map[string]string{"refresh_token": "required without a bearer token"}}
}

func (s *AuthService) Me(ctx context.Context, userID uint64) (model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, fullName string) (model.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" || utf8.RuneCountInString(fullName) > maxFullNameLen {
		return model.User{}, &ValidationError{Fields: map[string]string{"full_name": "must be between 1 and 128 characters"}}
	}
	if err := s.users.UpdateFullName(ctx, userID, fullName); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, userID)
}

// OAuthLogin signs in a portal identity. Known identities sign in directly,
// an existing account with the same e-mail gets linked when the portal has
// verified that e-mail, anyone else gets a new customer account.
func (s *AuthService) OAuthLogin(ctx context.Context, id oauth.Identity) (Session, error) {
	u, err := s.users.GetByOAuth(ctx, id.Provider, id.Subject)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		u, err = s.linkOrCreate(ctx, id)
		if err != nil {
			return Session{}, err
		}
	default:
		return Session{}, err
	}
	if !u.IsActive {
		return Session{}, ErrAccountDisabled
	}
	return s.issue(ctx, u)
}

func (s *AuthService) linkOrCreate(ctx context.Context, id oauth.Identity) (model.User, error) {
	u, err := s.users.GetByEmail(ctx, id.Email)
	if err == nil {
		if !id.EmailVerified {
			s.log.Warn("oauth link refused, email not verified", "user_id", u.ID, "provider", id.Provider)
			return model.User{}, ErrEmailUnverified
		}
		if err := s.users.LinkOAuth(ctx, u.ID, id.Provider, id.Subject); err != nil {
			return model.User{}, err
		}
		u.OAuthProvider, u.OAuthSubject = id.Provider, id.Subject
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	name := id.Name
	if name == "" {
		name, _, _ = strings.Cut(id.Email, "@")
	}
	uid, err := s.users.CreateOAuth(ctx, id.Email, name, id.Provider, id.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, err
	}
	s.events.publish(ctx, model.Event{Type: model.EventUserRegistered, UserID: uid, Email: id.Email})
	return model.User{
		ID: uid, Email: id.Email, FullName: name, Role: model.RoleCustomer,
		OAuthProvider: id.Provider, OAuthSubject: id.Subject, IsActive: true,
	}, nil
}

func (s *AuthService) issue(ctx context.Context, u model.User) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.Secret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// validEmail is a light shape check; the HTTP layer validates the format.
func validEmail(s string) bool {
	local, domain, ok := strings.Cut(s, "@")
	return ok && local != "" && strings.Contains(domain, ".") && !strings.ContainsAny(s, " \t\r\n") &&
		len(s) <= 255
}

var _ AuthUseCase = (*AuthService)(nil)
