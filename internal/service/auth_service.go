package service

import (
	"errors"

	"trxearn/config"
	"trxearn/internal/auth"
	"trxearn/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCreds = errors.New("invalid credentials")

// AuthService issues admin tokens. User tokens come from the Telegram login gateway.
type AuthService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// AdminLogin checks the password against the configured bcrypt hash and returns an ADMIN token.
func (s *AuthService) AdminLogin(username, password string) (string, error) {
	if s.cfg.Admin.PasswordHash == "" || username == "" {
		return "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCreds
	}
	return auth.GenerateAccessToken(&s.cfg.JWT, "admin:"+username, username, domain.RoleAdmin)
}
