package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
	"github.com/ignatzorin/artistapp-backend/internal/validation"
)

// AuthUserRepository описывает зависимости AuthService от хранилища заказчиков.
// Сессии обеих ролей живут в одной таблице и ходят через этот репозиторий.
type AuthUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	ListSessions(ctx context.Context, principalID uuid.UUID, role string) ([]models.Session, error)
	DeleteSessionByID(ctx context.Context, sessionID, principalID uuid.UUID, role string) error
}

// AuthArtistRepository описывает зависимости AuthService от хранилища артистов.
type AuthArtistRepository interface {
	Create(ctx context.Context, artist *models.Artist) error
	GetByEmail(ctx context.Context, email string) (*models.Artist, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Artist, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

// AuthService инкапсулирует регистрацию и аутентификацию обеих ролей.
type AuthService struct {
	users        AuthUserRepository
	artists      AuthArtistRepository
	tokenManager *TokenManager
}

// RegisterUserInput данные регистрации заказчика.
type RegisterUserInput struct {
	Email    string
	Username string
	Password string
	Phone    *string
	City     *string
}

// RegisterArtistInput данные регистрации артиста.
type RegisterArtistInput struct {
	Email        string
	Username     string
	FullName     string
	Password     string
	Category     *string
	Skills       []string
	City         *string
	Bio          *string
	PricePerHour *float64
}

// LoginInput данные для входа. Role определяет таблицу, по которой ищем учётку.
type LoginInput struct {
	Email    string
	Password string
	Role     string
}

// AuthResult итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User   `json:"user,omitempty"`
	Artist    *models.Artist `json:"artist,omitempty"`
	Principal models.Principal
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users AuthUserRepository, artists AuthArtistRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		users:        users,
		artists:      artists,
		tokenManager: tokenManager,
	}
}

// RegisterUser создаёт нового заказчика и открывает сессию.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterUserInput, meta map[string]string) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(in.Email),
		Username:     in.Username,
		PasswordHash: string(passHash),
		Phone:        in.Phone,
		City:         in.City,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Email or username already registered")
		}
		return nil, err
	}

	principal := models.Principal{ID: user.ID, Role: models.RoleUser}
	tokenPair, err := s.openSession(ctx, principal, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Principal: principal, TokenPair: tokenPair}, nil
}

// RegisterArtist создаёт нового артиста и открывает сессию.
func (s *AuthService) RegisterArtist(ctx context.Context, in RegisterArtistInput, meta map[string]string) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to hash password")
	}

	artist := &models.Artist{
		Email:        strings.ToLower(in.Email),
		Username:     in.Username,
		FullName:     in.FullName,
		PasswordHash: string(passHash),
		Category:     in.Category,
		Skills:       in.Skills,
		City:         in.City,
		Bio:          in.Bio,
		PricePerHour: in.PricePerHour,
	}

	if err := s.artists.Create(ctx, artist); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Email or username already registered")
		}
		return nil, err
	}

	principal := models.Principal{ID: artist.ID, Role: models.RoleArtist}
	tokenPair, err := s.openSession(ctx, principal, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Artist: artist, Principal: principal, TokenPair: tokenPair}, nil
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta map[string]string) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	email := strings.ToLower(in.Email)

	switch in.Role {
	case models.RoleUser:
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid credentials")
			}
			return nil, err
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid credentials")
		}
		if !user.IsActive {
			return nil, apperror.New(apperror.ErrCodeForbidden, "Account is deactivated")
		}

		principal := models.Principal{ID: user.ID, Role: models.RoleUser}
		tokenPair, err := s.openSession(ctx, principal, meta)
		if err != nil {
			return nil, err
		}
		_ = s.users.TouchLastLogin(ctx, user.ID)
		return &AuthResult{User: user, Principal: principal, TokenPair: tokenPair}, nil

	case models.RoleArtist:
		artist, err := s.artists.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrArtistNotFound) {
				return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid credentials")
			}
			return nil, err
		}
		if bcrypt.CompareHashAndPassword([]byte(artist.PasswordHash), []byte(in.Password)) != nil {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid credentials")
		}
		if !artist.IsActive {
			return nil, apperror.New(apperror.ErrCodeForbidden, "Account is deactivated")
		}

		principal := models.Principal{ID: artist.ID, Role: models.RoleArtist}
		tokenPair, err := s.openSession(ctx, principal, meta)
		if err != nil {
			return nil, err
		}
		_ = s.artists.TouchLastLogin(ctx, artist.ID)
		return &AuthResult{Artist: artist, Principal: principal, TokenPair: tokenPair}, nil

	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "Unknown role")
	}
}

// Refresh обновляет пару токенов по refresh токену.
// Старая сессия закрывается, на её месте открывается новая.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta map[string]string) (*AuthResult, error) {
	if _, err := s.tokenManager.ParseRefresh(refreshToken); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "Invalid refresh token")
	}

	session, err := s.users.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "Session expired")
		}
		return nil, err
	}

	if err := s.users.DeleteSession(ctx, refreshToken); err != nil {
		return nil, err
	}

	principal := models.Principal{ID: session.PrincipalID, Role: session.Role}
	tokenPair, err := s.openSession(ctx, principal, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Principal: principal, TokenPair: tokenPair}, nil
}

// Logout закрывает сессию по refresh токену.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.users.DeleteSession(ctx, refreshToken)
}

// ListSessions возвращает активные сессии принципала.
func (s *AuthService) ListSessions(ctx context.Context, principal models.Principal) ([]models.Session, error) {
	return s.users.ListSessions(ctx, principal.ID, principal.Role)
}

// DeleteSessionByID закрывает конкретную сессию принципала.
func (s *AuthService) DeleteSessionByID(ctx context.Context, principal models.Principal, sessionID uuid.UUID) error {
	err := s.users.DeleteSessionByID(ctx, sessionID, principal.ID, principal.Role)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return apperror.New(apperror.ErrCodeNotFound, "Session not found")
	}
	return err
}

// openSession выпускает токены и сохраняет refresh-сессию.
func (s *AuthService) openSession(ctx context.Context, principal models.Principal, meta map[string]string) (*TokenPair, error) {
	tokenPair, _, refreshExp, err := s.tokenManager.GeneratePair(principal)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to issue tokens")
	}

	session := &models.Session{
		PrincipalID:  principal.ID,
		Role:         principal.Role,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp,
	}

	if meta != nil {
		if ua, ok := meta["user_agent"]; ok {
			session.UserAgent = &ua
		}
		if ip, ok := meta["ip"]; ok {
			session.IPAddress = &ip
		}
	}

	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return tokenPair, nil
}
