package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"labelshop/internal/domain"
	"labelshop/internal/logging"
	tokenrepo "labelshop/internal/repository/token"
	userrepo "labelshop/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when identifier/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates a well-formed access token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

// Config tunes token lifetimes and signing.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Session is the outcome of a successful login, registration or refresh.
type Session struct {
	User             domain.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Service handles registration, login, refresh and logout.
type Service struct {
	users       userrepo.Repository
	refresh     *refreshManager
	signer      accessSigner
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
	logger      *zap.Logger
}

// New creates a Service; zero TTLs fall back to 15 minutes and 30 days.
func New(users userrepo.Repository, tokens tokenrepo.Repository, cfg Config, logger *zap.Logger) *Service {
	now := time.Now
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "labelshop"
	}
	return &Service{
		users:       users,
		refresh:     newRefreshManager(tokens, now),
		signer:      accessSigner{secret: []byte(cfg.Secret), issuer: cfg.Issuer, now: now},
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		passwordMin: 8,
		logger:      logging.OrNop(logger).Named("auth"),
	}
}

// RegisterInput captures fields expected by the register endpoint.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user with the default role and opens a session for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 characters of a-z, 0-9, '_', '.', '-'", domain.ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", domain.ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return s.openSession(ctx, *u)
}

// Login validates credentials. identifier is an email or a username.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	password = strings.TrimSpace(password)

	var (
		u   *domain.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.users.GetByEmail(ctx, identifier)
	} else {
		u, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, *u)
}

// Refresh exchanges a refresh token for a new session, rotating the refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidToken
	}
	userID, err := s.refresh.Consume(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return s.openSession(ctx, *u)
}

// Logout revokes the refresh token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.refresh.Revoke(ctx, refreshToken)
}

// LookupByToken returns the user bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.signer.validate(accessToken)
	if err != nil {
		if errors.Is(err, errExpiredAccess) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// AccessTTL exposes the access token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *Service) openSession(ctx context.Context, u domain.User) (*Session, error) {
	access, accessExp, err := s.signer.issue(u, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := s.refresh.Issue(ctx, u.ID, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &Session{
		User:             u,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
