package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/logger"
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
	"github.com/ignatzorin/artistapp-backend/internal/validation"
)

// DirectoryArtistRepository описывает зависимости каталога от хранилища артистов.
type DirectoryArtistRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Artist, error)
	UpdateProfile(ctx context.Context, artist *models.Artist) error
	SetProfileImage(ctx context.Context, id uuid.UUID, path string) error
	Search(ctx context.Context, filter repository.SearchFilter) ([]models.ArtistSearchResult, error)
	ClearExpiredShadowBans(ctx context.Context) (int64, error)
}

// ProfileUserRepository описывает зависимости каталога от хранилища заказчиков.
type ProfileUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

// MediaSaver сохраняет загруженные файлы.
type MediaSaver interface {
	Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error)
}

// ArtistService каталог: публичные профили артистов, поиск, профили заказчиков.
type ArtistService struct {
	artists DirectoryArtistRepository
	users   ProfileUserRepository
	media   MediaSaver
}

// UpdateArtistProfileInput редактируемые поля профиля артиста.
type UpdateArtistProfileInput struct {
	FullName     string
	Category     *string
	Skills       []string
	City         *string
	Bio          *string
	PricePerHour *float64
}

// UpdateUserProfileInput редактируемые поля профиля заказчика.
type UpdateUserProfileInput struct {
	Username string
	Phone    *string
	City     *string
}

// NewArtistService создаёт сервис каталога.
func NewArtistService(artists DirectoryArtistRepository, users ProfileUserRepository, media MediaSaver) *ArtistService {
	return &ArtistService{artists: artists, users: users, media: media}
}

// GetArtist возвращает профиль артиста. Профили доступны по прямой ссылке
// даже под теневым баном: бан скрывает артиста только из поиска.
func (s *ArtistService) GetArtist(ctx context.Context, id uuid.UUID) (*models.Artist, error) {
	artist, err := s.artists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return nil, apperror.ErrArtistNotFound
		}
		return nil, err
	}
	return artist, nil
}

// Search возвращает артистов каталога по фильтру.
func (s *ArtistService) Search(ctx context.Context, filter repository.SearchFilter) ([]models.ArtistSearchResult, error) {
	return s.artists.Search(ctx, filter)
}

// UpdateArtistProfile обновляет собственный профиль артиста.
func (s *ArtistService) UpdateArtistProfile(ctx context.Context, artistID uuid.UUID, in UpdateArtistProfileInput) (*models.Artist, error) {
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	artist, err := s.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	artist.FullName = in.FullName
	artist.Category = in.Category
	artist.Skills = in.Skills
	artist.City = in.City
	artist.Bio = in.Bio
	artist.PricePerHour = in.PricePerHour

	if err := s.artists.UpdateProfile(ctx, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

// UploadProfileImage сохраняет фото профиля артиста.
func (s *ArtistService) UploadProfileImage(ctx context.Context, artistID uuid.UUID, fileName string, r io.Reader) (string, error) {
	path, _, err := s.media.Save(ctx, artistID, fileName, r)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeBadRequest, "Failed to store uploaded file")
	}
	if err := s.artists.SetProfileImage(ctx, artistID, path); err != nil {
		return "", err
	}
	return path, nil
}

// GetUser возвращает профиль заказчика.
func (s *ArtistService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUserProfile обновляет собственный профиль заказчика.
func (s *ArtistService) UpdateUserProfile(ctx context.Context, userID uuid.UUID, in UpdateUserProfileInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Phone = in.Phone
	user.City = in.City

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SweepExpiredShadowBans снимает истёкшие баны; крутится фоновым тикером.
func (s *ArtistService) SweepExpiredShadowBans(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.artists.ClearExpiredShadowBans(ctx); err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).Warn("не удалось снять истёкшие баны")
			}
		}
	}
}
