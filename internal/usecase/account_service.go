package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventbooking/internal/domain"

	"github.com/hashicorp/go-hclog"
)

type RegisterInput struct {
	Username string
	Password string
	Role     string
}

type LoginResult struct {
	Token    string
	Username string
	Role     domain.Role
}

type AccountService struct {
	Users       domain.IdentityStore
	Credentials domain.CredentialVerifier
	Tokens      domain.TokenIssuer
	Logger      hclog.Logger
}

func NewAccountService(users domain.IdentityStore, credentials domain.CredentialVerifier, tokens domain.TokenIssuer, logger hclog.Logger) *AccountService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &AccountService{
		Users:       users,
		Credentials: credentials,
		Tokens:      tokens,
		Logger:      logger.Named("accounts"),
	}
}

// Register creates a credential record. The role defaults to USER; any other
// value must name a known role.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Identity, error) {
	if s == nil || s.Users == nil || s.Credentials == nil {
		return nil, errors.New("account service is not configured")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.NewValidationError("username and password required")
	}
	role := domain.RoleUser
	if strings.TrimSpace(in.Role) != "" {
		parsed, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("unknown role %q", in.Role))
		}
		role = parsed
	}

	exists, err := s.Users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}
	hash, err := s.Credentials.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}
	created, err := s.Users.Create(ctx, domain.Identity{
		Username:     username,
		PasswordHash: hash,
		Role:         role.String(),
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("user registered", "username", created.Username, "role", role)
	return created, nil
}

// Login exchanges a username and password for a signed token. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if s == nil || s.Users == nil || s.Credentials == nil || s.Tokens == nil {
		return LoginResult{}, errors.New("account service is not configured")
	}
	if username == "" || password == "" {
		return LoginResult{}, domain.NewValidationError("username and password required")
	}

	identity, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.Logger.Warn("login lookup failed", "username", username, "error", err)
		}
		if eq, ok := s.Credentials.(timingEqualizer); ok {
			eq.DummyMatch(ctx, password)
		}
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if !s.Credentials.Matches(ctx, password, identity.PasswordHash) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	role := domain.RoleUser
	if strings.TrimSpace(identity.Role) != "" {
		parsed, ok := domain.ParseRole(identity.Role)
		if !ok {
			s.Logger.Warn("refusing login for user with unknown role", "username", identity.Username, "role", identity.Role)
			return LoginResult{}, domain.ErrInvalidCredentials
		}
		role = parsed
	}
	token, err := s.Tokens.Issue(identity.Username, role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{Token: token, Username: identity.Username, Role: role}, nil
}
