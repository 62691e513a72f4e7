package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

// LoginResult is returned after a successful login.
type LoginResult struct {
	Email    string `json:"email"`
	NickName string `json:"nickName"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

const tempPasswordLength = 12

// AuthService handles login, logout and account recovery.
type AuthService struct {
	db     *gorm.DB
	mailer utils.Mailer
	ttl    time.Duration
}

// NewAuthService builds the service; ttl is the token lifetime.
func NewAuthService(db *gorm.DB, mailer utils.Mailer, ttl time.Duration) *AuthService {
	return &AuthService{db: db, mailer: mailer, ttl: ttl}
}

// Login checks credentials and issues a token. Unknown email and wrong password look the same.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	invalid := Unauthorized(40120, "email or password does not match")

	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFoundOr(err, invalid, "load user")
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, Forbidden(40302, "account is disabled")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.NickName, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Email: user.Email, NickName: user.NickName, Role: user.Role, Token: token}, nil
}

// Logout revokes the token id until it would have expired anyway.
func (s *AuthService) Logout(jti string, expiresAt time.Time) {
	utils.BlacklistToken(jti, expiresAt)
}

// FindID confirms that an account exists for email.
func (s *AuthService) FindID(email string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return "", notFoundOr(err, NotFound(40420, "no user with this email"), "load user")
	}
	return user.Email, nil
}

// FindPassword sets a random temporary password on the account matching
// email and name and mails it to the owner.
func (s *AuthService) FindPassword(email, name string) error {
	var user models.User
	err := s.db.Where("email = ? AND name = ?", normalizeEmail(email), name).First(&user).Error
	if err != nil {
		return notFoundOr(err, NotFound(40421, "no account matches the given information"), "load user")
	}

	temp, err := utils.RandomPassword(tempPasswordLength)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash, err := utils.HashPassword(temp)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", hash).Error; err != nil {
			return fmt.Errorf("reset password: %w", err)
		}
		body := fmt.Sprintf("Hello %s,\n\nYour temporary password is: %s\n\nPlease sign in and change it right away.\n", user.NickName, temp)
		if err := s.mailer.Send(user.Email, "Your temporary password", body); err != nil {
			return fmt.Errorf("send temporary password: %w", err)
		}
		return nil
	})
}
