package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/artistapp-backend/internal/dto"
	"github.com/ignatzorin/artistapp-backend/internal/http/handlers/common"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

// ArtistHandler обслуживает каталог артистов и профили.
type ArtistHandler struct {
	artists *service.ArtistService
}

// NewArtistHandler создаёт хэндлер.
func NewArtistHandler(artists *service.ArtistService) *ArtistHandler {
	return &ArtistHandler{artists: artists}
}

// Search обрабатывает GET /artists/search — публичный поиск по каталогу.
func (h *ArtistHandler) Search(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	filter := repository.SearchFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		City:     c.Query("city"),
		Limit:    limit,
		Offset:   offset,
	}

	if raw := c.Query("maxPrice"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil || maxPrice < 0 {
			common.RespondBadRequest(c, "maxPrice must be a non-negative number")
			return
		}
		filter.MaxPrice = &maxPrice
	}

	results, err := h.artists.Search(c.Request.Context(), filter)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"artists": results})
}

// GetArtist обрабатывает GET /artists/:id — публичный профиль артиста.
func (h *ArtistHandler) GetArtist(c *gin.Context) {
	artistID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid artist id")
		return
	}

	artist, err := h.artists.GetArtist(c.Request.Context(), artistID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, artist)
}

// GetMe обрабатывает GET /profile — профиль текущего принципала.
func (h *ArtistHandler) GetMe(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	if principal.IsArtist() {
		artist, err := h.artists.GetArtist(c.Request.Context(), principal.ID)
		if err != nil {
			common.RespondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, artist)
		return
	}

	user, err := h.artists.GetUser(c.Request.Context(), principal.ID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe обрабатывает PUT /profile.
func (h *ArtistHandler) UpdateMe(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	if principal.IsArtist() {
		var req dto.UpdateArtistProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}

		artist, err := h.artists.UpdateArtistProfile(c.Request.Context(), principal.ID, service.UpdateArtistProfileInput{
			FullName:     req.FullName,
			Category:     req.Category,
			Skills:       req.Skills,
			City:         req.City,
			Bio:          req.Bio,
			PricePerHour: req.PricePerHour,
		})
		if err != nil {
			common.RespondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, artist)
		return
	}

	var req dto.UpdateUserProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.artists.UpdateUserProfile(c.Request.Context(), principal.ID, service.UpdateUserProfileInput{
		Username: req.Username,
		Phone:    req.Phone,
		City:     req.City,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
