package services

import (
	"context"
	"errors"

	"taller-backend/internal/auth"
	"taller-backend/internal/models"
	"taller-backend/internal/repositories"
)

var (
	ErrCredencialesInvalidas = errors.New("invalid email or password")
	ErrTOTPRequerido         = errors.New("totp code required")
	ErrTOTPInvalido          = errors.New("invalid totp code")
)

type UserService struct {
	Repo       *repositories.UserRepository
	JWTManager *auth.JWTManager
}

func NewUserService(repo *repositories.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
	}
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

// Signup creates a new user with hashed password
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, errors.New("name, email, and password are required")
	}

	existingUser, _ := s.Repo.GetByEmail(ctx, req.Email)
	if existingUser != nil {
		return nil, errors.New("user with this email already exists")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         "tecnico",
		IsActive:     true,
	}

	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  user,
	}, nil
}

// Login authenticates a user and returns a JWT token. Users with 2FA
// enabled must also supply a valid TOTP code.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password are required")
	}

	user, err := s.Repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrCredencialesInvalidas
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrCredencialesInvalidas
	}

	if user.TOTPEnabled {
		if req.TOTPCode == "" {
			return nil, ErrTOTPRequerido
		}
		secret, err := s.Repo.GetTOTPSecret(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if !auth.ValidateTOTPCode(req.TOTPCode, secret) {
			return nil, ErrTOTPInvalido
		}
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  user,
	}, nil
}

// SetupTOTP generates a fresh secret for a user and stores it disabled
// until the first code is verified.
func (s *UserService) SetupTOTP(ctx context.Context, userID int) (*models.TOTPSetupResponse, error) {
	user, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret, url, err := auth.GenerateTOTPSecret(user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetTOTPSecret(ctx, user.ID, secret, false); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      secret,
		QRCode:      url,
		Issuer:      "taller-backend",
		AccountName: user.Email,
	}, nil
}

// VerifyTOTP checks the first code against the pending secret and
// enables 2FA on success.
func (s *UserService) VerifyTOTP(ctx context.Context, userID int, code string) error {
	secret, err := s.Repo.GetTOTPSecret(ctx, userID)
	if err != nil {
		return err
	}
	if secret == "" {
		return errors.New("no pending totp setup")
	}
	if !auth.ValidateTOTPCode(code, secret) {
		return ErrTOTPInvalido
	}
	return s.Repo.SetTOTPSecret(ctx, userID, secret, true)
}
