package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/internal/validation"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// MinPasswordLength is the shortest password accepted anywhere.
const MinPasswordLength = 6

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Sign(claims auth.Claims) (string, time.Time, error)
}

// AccountService coordinates registration, login and user administration.
type AccountService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens TokenIssuer
	logger *zap.Logger
}

// AccountDependencies encapsulates collaborators for the account service.
type AccountDependencies struct {
	Users  repository.UserRepository
	Hasher *auth.PasswordHasher
	Tokens TokenIssuer
	Logger *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		users:  deps.Users,
		hasher: deps.Hasher,
		tokens: deps.Tokens,
		logger: logger,
	}
}

// RegisterInput is the self-service signup payload.
type RegisterInput struct {
	Email    string
	Phone    string
	Password string
	Name     string
}

// CreateUserInput is the administrative create payload. Role defaults to USER.
type CreateUserInput struct {
	Email    string
	Phone    string
	Password string
	Name     string
	Role     string
}

// UpdateUserInput carries optional field changes; nil fields are left alone.
// An empty Phone clears the number.
type UpdateUserInput struct {
	Email    *string
	Phone    *string
	Name     *string
	Role     *string
	IsActive *bool
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a USER account and signs a token for it.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	phone, err := validation.NormalizeBRPhone(in.Phone)
	if err != nil {
		return nil, apperrors.ErrPhoneNotValid()
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if err := requireFields(email, name); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	if err := s.ensurePhoneFree(ctx, phone, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Name:         name,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapStoreError(err)
	}

	claims := auth.NewClaims(user.ID)
	claims.Role = domain.RoleUser
	claims.Name = user.Name
	claims.Phone = user.Phone
	claims.Email = user.Email

	token, exp, err := s.tokens.Sign(claims)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// Login checks credentials. Unknown email, wrong password and inactive
// accounts all produce the same USER_NOT_FOUND error.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound()
		}
		return nil, apperrors.MapError(err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		return nil, apperrors.ErrUserNotFound()
	}

	claims := auth.NewClaims(user.ID)
	claims.Role = user.Role
	claims.Name = user.Name
	claims.Phone = user.Phone

	token, exp, err := s.tokens.Sign(claims)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// GetProfile returns the caller's own record.
func (s *AccountService) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

// ListUsers returns users matching filter.
func (s *AccountService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter.Normalize())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// CreateUser provisions an account on behalf of an administrator.
func (s *AccountService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	role := domain.RoleUser
	if in.Role != "" {
		parsed, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, invalidRole()
		}
		role = parsed
	}

	phone := ""
	if strings.TrimSpace(in.Phone) != "" {
		normalized, err := validation.NormalizeBRPhone(in.Phone)
		if err != nil {
			return nil, apperrors.ErrPhoneNotValid()
		}
		phone = normalized
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if err := requireFields(email, name); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	if err := s.ensurePhoneFree(ctx, phone, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapStoreError(err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// UpdateUser applies the non-nil fields of in to the user.
func (s *AccountService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	changes, err := normalizeUpdate(in)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if changes.Phone != nil {
		if err := s.ensurePhoneFree(ctx, *changes.Phone, user.ID); err != nil {
			return nil, err
		}
		user.Phone = *changes.Phone
	}
	if changes.Email != nil {
		if err := s.ensureEmailFree(ctx, *changes.Email, user.ID); err != nil {
			return nil, err
		}
		user.Email = *changes.Email
	}
	if changes.Role != nil {
		user.Role = domain.Role(*changes.Role)
	}
	if changes.Name != nil {
		user.Name = *changes.Name
	}
	if changes.IsActive != nil {
		user.IsActive = *changes.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

// normalizeUpdate checks the format of every supplied field without touching
// the store and returns the cleaned values.
func normalizeUpdate(in UpdateUserInput) (UpdateUserInput, error) {
	out := UpdateUserInput{IsActive: in.IsActive}

	if in.Role != nil {
		role, ok := domain.ParseRole(*in.Role)
		if !ok {
			return out, invalidRole()
		}
		raw := string(role)
		out.Role = &raw
	}
	if in.Phone != nil {
		phone := ""
		if strings.TrimSpace(*in.Phone) != "" {
			normalized, err := validation.NormalizeBRPhone(*in.Phone)
			if err != nil {
				return out, apperrors.ErrPhoneNotValid()
			}
			phone = normalized
		}
		out.Phone = &phone
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return out, apperrors.NewValidationError("email cannot be empty", map[string]any{"email": "is required"})
		}
		out.Email = &email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return out, apperrors.NewValidationError("name cannot be empty", map[string]any{"name": "is required"})
		}
		out.Name = &name
	}
	return out, nil
}

// ChangeOwnPassword sets the caller's password. The target is always the caller.
func (s *AccountService) ChangeOwnPassword(ctx context.Context, identity *domain.Identity, newPassword string) error {
	if identity == nil {
		return apperrors.NewUnauthorized(apperrors.CodeUnauthorized, "unauthorized")
	}
	return s.SetPassword(ctx, identity.ID, newPassword)
}

// SetPassword replaces the password of any user.
func (s *AccountService) SetPassword(ctx context.Context, id, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return mapStoreError(err)
	}
	s.logger.Info("password changed", zap.String("user_id", id))
	return nil
}

// Deactivate marks the user inactive. Outstanding tokens stop working on the
// next request because the pipeline re-reads the record.
func (s *AccountService) Deactivate(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreError(err)
	}
	s.logger.Info("user deactivated", zap.String("user_id", id))
	return user, nil
}

// Remove deletes the user permanently.
func (s *AccountService) Remove(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	s.logger.Info("user removed", zap.String("user_id", id))
	return nil
}

func (s *AccountService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.MapError(err)
	case existing.ID != selfID:
		return apperrors.ErrEmailAlreadyExists()
	}
	return nil
}

func (s *AccountService) ensurePhoneFree(ctx context.Context, phone, selfID string) error {
	if phone == "" {
		return nil
	}
	existing, err := s.users.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.MapError(err)
	case existing.ID != selfID:
		return apperrors.ErrPhoneAlreadyExists()
	}
	return nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.ErrUserNotFound()
	case errors.Is(err, repository.ErrEmailTaken):
		return apperrors.ErrEmailAlreadyExists()
	case errors.Is(err, repository.ErrPhoneTaken):
		return apperrors.ErrPhoneAlreadyExists()
	default:
		return apperrors.MapError(err)
	}
}

func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.ErrPasswordNotValid()
	}
	return nil
}

func requireFields(email, name string) error {
	details := map[string]any{}
	if email == "" {
		details["email"] = "is required"
	}
	if name == "" {
		details["name"] = "is required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}

func invalidRole() error {
	return apperrors.NewValidationError("invalid role", map[string]any{"role": domain.RoleChoices()})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
