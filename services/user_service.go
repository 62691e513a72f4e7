package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

// SignUpInput is the registration payload.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
	NickName string
}

// UserUpdateInput carries optional profile changes.
type UserUpdateInput struct {
	Email    *string
	Name     *string
	NickName *string
	Password *string
}

// SignedUpUser is returned after registration.
type SignedUpUser struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserProfile is the public view of an account.
type UserProfile struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	NickName string `json:"nickName"`
	Role     string `json:"role"`
}

// EmailAvailability answers an email availability check.
type EmailAvailability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

const minPasswordLength = 6

// UserService manages accounts.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailTaken checks every account, soft-deleted ones included, because the unique index covers them too.
func (s *UserService) emailTaken(email string, exclude uint) (bool, error) {
	q := s.db.Unscoped().Model(&models.User{}).Where("email = ?", email)
	if exclude != 0 {
		q = q.Where("id <> ?", exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

func (s *UserService) create(in SignUpInput, role string) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, BadRequest(40010, "email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, BadRequest(40011, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	name := utils.SanitizePlain(in.Name)
	nick := utils.SanitizePlain(in.NickName)
	if name == "" || nick == "" {
		return nil, BadRequest(40012, "name and nickName are required")
	}

	taken, err := s.emailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, BadRequest(40013, "email already registered").WithErrorCode("USER_ALREADY_EXISTS")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		NickName:     nick,
		Role:         role,
		IsActive:     true,
	}
	if err := s.db.Omit("Posts", "Comments", "Reactions").Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, BadRequest(40013, "email already registered").WithErrorCode("USER_ALREADY_EXISTS")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// SignUp registers a regular account.
func (s *UserService) SignUp(in SignUpInput) (*SignedUpUser, error) {
	user, err := s.create(in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return &SignedUpUser{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt}, nil
}

// CheckEmail reports whether an email can still be registered.
func (s *UserService) CheckEmail(email string) (*EmailAvailability, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, BadRequest(40010, "email is required")
	}
	taken, err := s.emailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return &EmailAvailability{Available: false, Message: "email is already in use"}, nil
	}
	return &EmailAvailability{Available: true, Message: "email is available"}, nil
}

// Me echoes the token payload.
func (s *UserService) Me(id Identity) Identity {
	return id
}

// Update changes profile fields of the caller's account.
func (s *UserService) Update(id Identity, in UserUpdateInput) (*UserProfile, error) {
	var user models.User
	if err := s.db.First(&user, id.ID).Error; err != nil {
		return nil, notFoundOr(err, NotFound(40410, "user not found").WithErrorCode("USER_NOT_FOUND"), "load user")
	}

	updates := map[string]interface{}{}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, BadRequest(40010, "email is required")
		}
		if email != user.Email {
			taken, err := s.emailTaken(email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, BadRequest(40014, "email is already in use").WithErrorCode("EMAIL_ALREADY_EXISTS")
			}
			updates["email"] = email
		}
	}
	if in.Name != nil {
		name := utils.SanitizePlain(*in.Name)
		if name == "" {
			return nil, BadRequest(40012, "name cannot be empty")
		}
		updates["name"] = name
	}
	if in.NickName != nil {
		nick := utils.SanitizePlain(*in.NickName)
		if nick == "" {
			return nil, BadRequest(40012, "nickName cannot be empty")
		}
		updates["nick_name"] = nick
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, BadRequest(40011, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = hash
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if err := s.db.First(&user, user.ID).Error; err != nil {
			return nil, fmt.Errorf("reload user: %w", err)
		}
	}
	return profileOf(user), nil
}

func profileOf(u models.User) *UserProfile {
	return &UserProfile{ID: u.ID, Email: u.Email, Name: u.Name, NickName: u.NickName, Role: u.Role}
}

// Delete soft-deletes the caller's account.
func (s *UserService) Delete(id Identity) error {
	var user models.User
	if err := s.db.First(&user, id.ID).Error; err != nil {
		return notFoundOr(err, NotFound(40410, "user not found").WithErrorCode("USER_NOT_FOUND"), "load user")
	}
	if err := s.db.Delete(&user).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Get loads a live account.
func (s *UserService) Get(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, NotFound(40410, "user not found").WithErrorCode("USER_NOT_FOUND"), "load user")
	}
	return &user, nil
}

// FindAdmin returns the first administrator, or nil when there is none.
func (s *UserService) FindAdmin() (*models.User, error) {
	var user models.User
	err := s.db.Where("role = ?", models.RoleAdmin).Order("id ASC").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &user, nil
}

// CreateAdmin registers an administrator account.
func (s *UserService) CreateAdmin(in SignUpInput) (*UserProfile, error) {
	user, err := s.create(in, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return profileOf(*user), nil
}
