// Package identity содержит бизнес-логику учётных записей: регистрацию, вход,
// выдачу JWT и административное управление пользователями.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgersandbox/ledger-sandbox/internal/config"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/jwt"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/password"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// UserRepository описывает хранилище пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	DeleteUser(ctx context.Context, id string) error
}

// WalletSeeder заводит стартовые кошельки новому пользователю.
type WalletSeeder interface {
	SeedWallets(ctx context.Context, user *models.User) error
}

// Service реализует операции над учётными записями.
type Service struct {
	users    UserRepository
	seeder   WalletSeeder
	jwtMaker jwt.Maker
	reserved *ReservedAdmins
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт Service.
func New(users UserRepository, seeder WalletSeeder, jwtMaker jwt.Maker, reserved *ReservedAdmins, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		seeder:   seeder,
		jwtMaker: jwtMaker,
		reserved: reserved,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetUserByUsername ищет пользователя по имени без учёта регистра.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetUserByUsername(ctx, username)
}

// GetUserByEmail ищет пользователя по email.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetUserByEmail(ctx, email)
}

// GetUser возвращает пользователя по ID.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}

// IsReservedAdmin сообщает, относится ли пользователь к зарезервированным администраторам.
func (s *Service) IsReservedAdmin(u *models.User) bool {
	return u != nil && s.reserved.Contains(u.Username)
}

// CreateUser создаёт пользователя с указанной ролью. Имя и email должны быть
// уникальны без учёта регистра.
func (s *Service) CreateUser(ctx context.Context, req models.NewUser, role string) (*models.User, error) {
	const op = "identity.CreateUser"

	if err := s.ensureUsernameFree(ctx, req.Username, ""); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var email *string
	if req.Email != "" {
		if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		email = &req.Email
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if role == "" {
		role = models.RoleUser
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user created", slog.String("user_id", user.ID), slog.String("role", role))
	return &user, nil
}

// Register создаёт обычного пользователя, заводит ему стартовые кошельки и выдаёт токен.
func (s *Service) Register(ctx context.Context, req models.NewUser) (*models.User, string, error) {
	user, err := s.CreateUser(ctx, req, models.RoleUser)
	if err != nil {
		return nil, "", err
	}
	if err := s.seeder.SeedWallets(ctx, user); err != nil {
		s.log.Warn("failed to seed wallets", slog.String("user_id", user.ID), sl.Err(err))
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login проверяет пароль и выдаёт подписанный токен.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (*models.User, string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, "", models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", models.ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, "", models.ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ParseToken проверяет токен и возвращает его claims.
func (s *Service) ParseToken(token string) (*jwt.CustomClaims, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUnauthorized, err)
	}
	return claims, nil
}

// UpdateUser применяет частичное обновление. Уникальность имени и email
// перепроверяется относительно остальных пользователей. Зарезервированных
// администраторов нельзя переименовать или лишить роли.
func (s *Service) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	const op = "identity.UpdateUser"

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Username != nil && *patch.Username != user.Username {
		if s.IsReservedAdmin(user) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrProtectedAccount)
		}
		if err := s.ensureUsernameFree(ctx, *patch.Username, user.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		if *patch.Email == "" {
			user.Email = nil
		} else {
			if err := s.ensureEmailFree(ctx, *patch.Email, user.ID); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			email := *patch.Email
			user.Email = &email
		}
	}
	if patch.Role != nil && *patch.Role != user.Role {
		if s.IsReservedAdmin(user) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrProtectedAccount)
		}
		user.Role = *patch.Role
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	user.UpdatedAt = s.now()

	if err := s.users.UpdateUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// DeleteUser удаляет пользователя. Зарезервированные администраторы не удаляются.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	const op = "identity.DeleteUser"

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.IsReservedAdmin(user) {
		return fmt.Errorf("%s: %w", op, models.ErrProtectedAccount)
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.String("user_id", id))
	return nil
}

// ResetPassword заменяет пароль пользователя.
func (s *Service) ResetPassword(ctx context.Context, id, newPassword string) error {
	const op = "identity.ResetPassword"
	hash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EnsureAdmins создаёт отсутствующие учётные записи зарезервированных администраторов.
func (s *Service) EnsureAdmins(ctx context.Context, accounts []config.AdminAccount) error {
	for _, a := range accounts {
		_, err := s.users.GetUserByUsername(ctx, a.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		user, err := s.CreateUser(ctx, models.NewUser{
			Username: a.Username,
			Email:    a.Email,
			Password: a.Password,
		}, models.RoleAdmin)
		if err != nil {
			return err
		}
		if err := s.seeder.SeedWallets(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ensureUsernameFree(ctx context.Context, username, selfID string) error {
	existing, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	default:
		return models.ErrDuplicateUsername
	}
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	default:
		return models.ErrDuplicateEmail
	}
}
