package auth

import (
	"errors"
	"log/slog"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
)

// Repository is the data access surface the auth service needs. Implemented
// by the postgres subpackage against the shared users table.
type Repository interface {
	Create(account *Account) error
	GetByEmail(email string) (*Account, error)
	GetByID(id int64) (*Account, error)
	UsernameExists(username string) (bool, error)
	EmailExists(email string) (bool, error)
}

type Service struct {
	repo       Repository
	tokenGen   TokenGenerator
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		tokenGen:   tokenGen,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an account with a derived class, hashes the password and
// issues a bearer token so the caller is logged in immediately.
func (s *Service) Register(dto SignupDTO) (*Account, string, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	taken, err := s.repo.UsernameExists(dto.Username)
	if err != nil {
		return nil, "", err
	}
	if taken {
		s.logger.Warn("registration rejected: username taken", "username", dto.Username)
		return nil, "", ErrUsernameTaken
	}

	taken, err = s.repo.EmailExists(dto.Email)
	if err != nil {
		return nil, "", err
	}
	if taken {
		s.logger.Warn("registration rejected: email taken")
		return nil, "", ErrEmailTaken
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	account := &Account{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         dto.Role,
		Class:        DeriveClass(dto.Role),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(account); err != nil {
		s.logger.Error("failed to create account", "error", err)
		return nil, "", err
	}

	token, err := s.tokenGen.GenerateToken(account)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("account registered",
		"user_id", account.ID,
		"username", account.Username,
		"role", account.Role,
		"class", account.Class)

	return account, token, nil
}

// Login authenticates an active account by email. Unknown email and wrong
// password fail identically so callers cannot enumerate accounts.
func (s *Service) Login(dto LoginDTO) (*Account, string, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	account, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, "", ErrInvalidCredentials
	}

	if err := VerifyPassword(account.PasswordHash, dto.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenGen.GenerateToken(account)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("login successful", "user_id", account.ID, "class", account.Class)

	return account, token, nil
}

// ValidateAccessToken validates the bearer token and checks the account is
// still present and active. Role and class come from the claims, not the
// store, so a mid-session role change stays invisible until the token
// expires; disabling an account takes effect on the next request.
func (s *Service) ValidateAccessToken(tokenString string) (*Identity, error) {
	claims, err := s.tokenGen.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.GetByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !account.IsActive {
		return nil, ErrUserInactive
	}

	return claims.Identity(), nil
}
