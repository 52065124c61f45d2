package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	httpmiddleware "github.com/terapiaconect/platform/internal/http/middleware"
	"github.com/terapiaconect/platform/pkg/logging"
)

// ProfileInitializer seeds a therapist profile row for a new account.
type ProfileInitializer interface {
	EnsureProfile(ctx context.Context, userID string) error
}

// Service handles registration, login and token issuance.
type Service struct {
	repo        *Repository
	profiles    ProfileInitializer
	logger      *logging.Logger
	secret      []byte
	issuer      string
	tokenTTL    time.Duration
	bcryptCost  int
	adminSecret string
}

// ServiceConfig holds auth settings for the accounts service.
type ServiceConfig struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
	// AdminSecret gates ADMIN self-registration. Empty disables it.
	AdminSecret string
	// Profiles, when set, is invoked for newly registered therapists.
	Profiles ProfileInitializer
}

// NewService constructs an accounts service.
func NewService(repo *Repository, cfg ServiceConfig, logger *logging.Logger) *Service {
	if repo == nil {
		panic("accounts: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:        repo,
		profiles:    cfg.Profiles,
		logger:      logger,
		secret:      []byte(cfg.JWTSecret),
		issuer:      cfg.Issuer,
		tokenTTL:    cfg.TokenTTL,
		bcryptCost:  cfg.BcryptCost,
		adminSecret: cfg.AdminSecret,
	}
}

// Register creates a user and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Role == RoleAdmin && (s.adminSecret == "" || req.AdminSecret != s.adminSecret) {
		return nil, ErrAdminSecret
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}

	user := &User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if user.Role == RoleTherapist && s.profiles != nil {
		if err := s.profiles.EnsureProfile(ctx, user.ID); err != nil {
			s.logger.Warn("seed therapist profile failed", "user_id", user.ID, "error", err)
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &AuthResponse{Token: token, User: user}, nil
}

// Login checks credentials and returns a token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrBadCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) issueToken(user *User) (string, error) {
	now := time.Now()
	claims := httpmiddleware.UserClaims{
		Role: user.Role,
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("accounts: sign token: %w", err)
	}
	return signed, nil
}
