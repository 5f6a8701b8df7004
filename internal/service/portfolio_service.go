package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
	"github.com/ignatzorin/artistapp-backend/internal/repository/common"
	"github.com/ignatzorin/artistapp-backend/internal/validation"
)

// PortfolioRepo описывает зависимости PortfolioService от хранилища.
type PortfolioRepo interface {
	CreateItem(ctx context.Context, item *models.PortfolioItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error)
	ListForArtist(ctx context.Context, artistID uuid.UUID) ([]models.PortfolioItem, error)
	UpdateItem(ctx context.Context, item *models.PortfolioItem) error
	DeleteItem(ctx context.Context, artistID, id uuid.UUID) error
	Follow(ctx context.Context, userID, artistID uuid.UUID) error
	Unfollow(ctx context.Context, userID, artistID uuid.UUID) error
	IsFollowing(ctx context.Context, userID, artistID uuid.UUID) (bool, error)
	FollowerCount(ctx context.Context, artistID uuid.UUID) (int, error)
	ListFollowedArtists(ctx context.Context, userID uuid.UUID) ([]models.ArtistSearchResult, error)
}

// PortfolioService портфолио артистов и подписки на них.
type PortfolioService struct {
	repo    PortfolioRepo
	artists BookingArtistRepository
	media   MediaSaver
}

// PortfolioItemInput данные работы в портфолио.
type PortfolioItemInput struct {
	Title        string
	Description  *string
	ExternalLink *string
}

// NewPortfolioService создаёт сервис портфолио.
func NewPortfolioService(repo PortfolioRepo, artists BookingArtistRepository, media MediaSaver) *PortfolioService {
	return &PortfolioService{repo: repo, artists: artists, media: media}
}

// AddItem добавляет работу в портфолио артиста, опционально с медиафайлом.
func (s *PortfolioService) AddItem(ctx context.Context, artistID uuid.UUID, in PortfolioItemInput, fileName string, file io.Reader) (*models.PortfolioItem, error) {
	if err := validation.ValidateLength("title", in.Title, 1, 200); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	item := &models.PortfolioItem{
		ArtistID:     artistID,
		Title:        in.Title,
		Description:  in.Description,
		ExternalLink: in.ExternalLink,
	}

	if file != nil {
		path, _, err := s.media.Save(ctx, artistID, fileName, file)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "Failed to store uploaded file")
		}
		item.MediaPath = &path
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// List возвращает портфолио артиста.
func (s *PortfolioService) List(ctx context.Context, artistID uuid.UUID) ([]models.PortfolioItem, error) {
	if _, err := s.artists.GetByID(ctx, artistID); err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return nil, apperror.ErrArtistNotFound
		}
		return nil, err
	}
	return s.repo.ListForArtist(ctx, artistID)
}

// UpdateItem обновляет собственную работу артиста.
func (s *PortfolioService) UpdateItem(ctx context.Context, artistID, itemID uuid.UUID, in PortfolioItemInput) (*models.PortfolioItem, error) {
	if err := validation.ValidateLength("title", in.Title, 1, 200); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioItemNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "Portfolio item not found")
		}
		return nil, err
	}
	if item.ArtistID != artistID {
		return nil, apperror.ErrForbidden
	}

	item.Title = in.Title
	item.Description = in.Description
	item.ExternalLink = in.ExternalLink

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, repository.ErrPortfolioItemNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "Portfolio item not found")
		}
		return nil, err
	}
	return item, nil
}

// DeleteItem удаляет собственную работу артиста.
func (s *PortfolioService) DeleteItem(ctx context.Context, artistID, itemID uuid.UUID) error {
	if err := s.repo.DeleteItem(ctx, artistID, itemID); err != nil {
		if errors.Is(err, repository.ErrPortfolioItemNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "Portfolio item not found")
		}
		return err
	}
	return nil
}

// Follow подписывает заказчика на артиста.
func (s *PortfolioService) Follow(ctx context.Context, userID, artistID uuid.UUID) error {
	if _, err := s.artists.GetByID(ctx, artistID); err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return apperror.ErrArtistNotFound
		}
		return err
	}
	if err := s.repo.Follow(ctx, userID, artistID); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return apperror.New(apperror.ErrCodeConflict, "Already following this artist")
		}
		return err
	}
	return nil
}

// Unfollow отписывает заказчика от артиста.
func (s *PortfolioService) Unfollow(ctx context.Context, userID, artistID uuid.UUID) error {
	if err := s.repo.Unfollow(ctx, userID, artistID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "Not following this artist")
		}
		return err
	}
	return nil
}

// Following возвращает артистов, на которых подписан заказчик.
func (s *PortfolioService) Following(ctx context.Context, userID uuid.UUID) ([]models.ArtistSearchResult, error) {
	return s.repo.ListFollowedArtists(ctx, userID)
}

// FollowState возвращает состояние подписки и число подписчиков артиста.
func (s *PortfolioService) FollowState(ctx context.Context, userID, artistID uuid.UUID) (bool, int, error) {
	following, err := s.repo.IsFollowing(ctx, userID, artistID)
	if err != nil {
		return false, 0, err
	}
	count, err := s.repo.FollowerCount(ctx, artistID)
	if err != nil {
		return false, 0, err
	}
	return following, count, nil
}
