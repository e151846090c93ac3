package service

import (
	"context"
	"errors"
	"time"

	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/internal/app/repository"
	"github.com/minlee/storefront-backend/pkg/logger"
	"github.com/minlee/storefront-backend/pkg/redis"
	"github.com/minlee/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthService interface {
	Register(name, email, password string) (*model.User, error)
	Login(email, password string) (string, *model.User, error)
	SignOut(ctx context.Context, token string) error
	GetUserByID(userID uint) (*model.User, error)
	UpdateProfile(userID uint, name, address, paymentMethod string) (*model.User, error)
}

type authService struct {
	userRepo          repository.UserRepository
	jwtSecret         string
	accessTokenExpiry time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, accessTokenExpiry time.Duration) AuthService {
	return &authService{
		userRepo:          userRepo,
		jwtSecret:         jwtSecret,
		accessTokenExpiry: accessTokenExpiry,
	}
}

func (s *authService) Register(name, email, password string) (*model.User, error) {
	logger.Info("Registering new user", map[string]interface{}{
		"email": email,
	})

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		logger.Warn("Registration rejected: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, nil)
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) Login(email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: unknown email", map[string]interface{}{
				"email": email,
			})
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"user_id": user.ID,
		})
		return "", nil, ErrInvalidCredentials
	}

	token, err := util.GenerateToken(user.ID, user.Email, string(user.Role), s.jwtSecret, s.accessTokenExpiry)
	if err != nil {
		logger.Error("Failed to generate access token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return "", nil, err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	return token, user, nil
}

// SignOut revokes the presented token for the rest of its lifetime.
func (s *authService) SignOut(ctx context.Context, token string) error {
	if redis.GetClient() == nil {
		logger.Warn("Token blacklist unavailable, sign-out is client-side only", nil)
		return nil
	}
	return redis.BlacklistToken(ctx, token, s.accessTokenExpiry)
}

func (s *authService) GetUserByID(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, name, address, paymentMethod string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if address != "" {
		user.Address = address
	}
	if paymentMethod != "" {
		user.PaymentMethod = paymentMethod
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User profile updated", map[string]interface{}{
		"user_id": userID,
	})
	return user, nil
}
