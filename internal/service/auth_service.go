package service

import (
	"errors"

	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/internal/repository"
	"cuerpofit_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles admin logins for the applications dashboard.
type AuthService struct {
	cfg       *config.Config
	adminRepo *repository.AdminRepository
}

func NewAuthService(cfg *config.Config, adminRepo *repository.AdminRepository) *AuthService {
	return &AuthService{cfg: cfg, adminRepo: adminRepo}
}

// Login checks the credentials and returns a signed token plus the user.
func (s *AuthService) Login(email, password string) (string, *model.AdminUser, error) {
	user, err := s.adminRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
