package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"github.com/yukikurage/pandora-pm/internal/constants"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = apierrors.Validation("password", "must be at least 8 characters")
	ErrPasswordTooLong  = apierrors.Validation("password", "must be at most 72 bytes")
	ErrPasswordMismatch = apierrors.Validation("confirm_password", "passwords do not match")
	ErrAccountTaken     = apierrors.Conflict(apierrors.ErrCodeAlreadyExists, "username or email already exists")
	ErrUsernameTaken    = apierrors.Conflict(apierrors.ErrCodeAlreadyExists, "username is already taken")
	ErrEmailTaken       = apierrors.Conflict(apierrors.ErrCodeAlreadyExists, "email is already registered")
	ErrInvalidTheme     = apierrors.Validation("theme", "is not an available theme")
	ErrCurrentPassword  = apierrors.Validation("current_password", "is incorrect")
)

// AuthService handles registration, login and the caller's own profile.
type AuthService struct {
	users repository.UserRepository
	log   logr.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, log logr.Logger) *AuthService {
	return &AuthService{users: users, log: log}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates a new account. The very first account becomes an
// administrator.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username, err := normalizeUsername(input.Username)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if taken, err := findOtherUser(ctx, s.users, "", username, email); err != nil {
		return nil, err
	} else if taken != nil {
		return nil, ErrAccountTaken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := models.RoleUser
	if count == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apierrors.ErrConflict) {
			return nil, ErrAccountTaken
		}
		return nil, err
	}

	s.log.Info("user registered", "userID", user.ID, "role", user.Role)
	return user, nil
}

// LoginInput holds the credentials for authentication. Identifier is either
// a username or an email address.
type LoginInput struct {
	Identifier string
	Password   string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, apierrors.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, identifier)
	if errors.Is(err, apierrors.ErrNotFound) {
		user, err = s.users.FindByEmail(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apierrors.ErrNotFound) {
			return nil, apierrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apierrors.ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateProfileInput holds the profile fields the caller wants to change.
// A new password requires the current one.
type UpdateProfileInput struct {
	Username        *string
	Email           *string
	Theme           *models.Theme
	CurrentPassword string
	NewPassword     *string
}

// UpdateProfile changes the caller's own account. Returns ErrNoChanges when
// every supplied field already holds the requested value.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var upd repository.UserUpdate
	if input.Username != nil {
		username, err := normalizeUsername(*input.Username)
		if err != nil {
			return nil, err
		}
		upd.Username = &username
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	if input.Theme != nil {
		if !input.Theme.Valid() {
			return nil, ErrInvalidTheme
		}
		upd.Theme = input.Theme
	}
	if input.NewPassword != nil {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)) != nil {
			return nil, ErrCurrentPassword
		}
		if utf8.RuneCountInString(*input.NewPassword) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := hashPassword(*input.NewPassword)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	if err := checkIdentity(ctx, s.users, user, upd); err != nil {
		return nil, err
	}

	return applyUserUpdate(ctx, s.users, user.ID, upd)
}

// findOtherUser returns the first user other than exceptID holding username
// or email, nil when there is none.
func findOtherUser(ctx context.Context, users repository.UserRepository, exceptID, username, email string) (*models.User, error) {
	if username != "" {
		u, err := users.FindByUsername(ctx, username)
		if err == nil && u.ID != exceptID {
			return u, nil
		}
		if err != nil && !errors.Is(err, apierrors.ErrNotFound) {
			return nil, err
		}
	}
	if email != "" {
		u, err := users.FindByEmail(ctx, email)
		if err == nil && u.ID != exceptID {
			return u, nil
		}
		if err != nil && !errors.Is(err, apierrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// checkIdentity rejects a username or email already held by another user.
func checkIdentity(ctx context.Context, users repository.UserRepository, cur *models.User, upd repository.UserUpdate) error {
	if upd.Username != nil && !strings.EqualFold(*upd.Username, cur.Username) {
		if other, err := findOtherUser(ctx, users, cur.ID, *upd.Username, ""); err != nil {
			return err
		} else if other != nil {
			return ErrUsernameTaken
		}
	}
	if upd.Email != nil && *upd.Email != cur.Email {
		if other, err := findOtherUser(ctx, users, cur.ID, "", *upd.Email); err != nil {
			return err
		} else if other != nil {
			return ErrEmailTaken
		}
	}
	return nil
}

func applyUserUpdate(ctx context.Context, users repository.UserRepository, id string, upd repository.UserUpdate) (*models.User, error) {
	res, err := users.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, apierrors.ErrConflict) {
			return nil, ErrAccountTaken
		}
		return nil, err
	}
	if !res.Matched {
		return nil, apierrors.NotFound("user")
	}
	if !res.Modified {
		return nil, apierrors.ErrNoChanges
	}
	return users.FindByID(ctx, id)
}

func normalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", apierrors.Validation("username", "is required")
	}
	if utf8.RuneCountInString(username) > constants.MaxUsernameLength {
		return "", apierrors.Validation("username", "is too long")
	}
	return username, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apierrors.Validation("email", "is required")
	}
	if len(email) > constants.MaxEmailLength {
		return "", apierrors.Validation("email", "is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apierrors.Validation("email", "is not a valid address")
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", apierrors.Internal("hash password", err)
	}
	return string(hash), nil
}
