package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/artistapp-backend/internal/dto"
	"github.com/ignatzorin/artistapp-backend/internal/http/handlers/common"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

// PortfolioHandler обслуживает портфолио артистов и подписки.
type PortfolioHandler struct {
	portfolio *service.PortfolioService
}

// NewPortfolioHandler создаёт хэндлер.
func NewPortfolioHandler(portfolio *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio}
}

// ListForArtist обрабатывает GET /artists/:id/portfolio — публичный просмотр.
func (h *PortfolioHandler) ListForArtist(c *gin.Context) {
	artistID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid artist id")
		return
	}

	items, err := h.portfolio.List(c.Request.Context(), artistID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Create обрабатывает POST /portfolio (только артист).
// Принимает multipart форму с полями title, description, externalLink и
// необязательным файлом media.
func (h *PortfolioHandler) Create(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	title := c.PostForm("title")
	if title == "" {
		common.RespondBadRequest(c, "Title is required")
		return
	}

	in := service.PortfolioItemInput{Title: title}
	if v := c.PostForm("description"); v != "" {
		in.Description = &v
	}
	if v := c.PostForm("externalLink"); v != "" {
		in.ExternalLink = &v
	}

	var fileName string
	var file io.Reader
	if header, err := c.FormFile("media"); err == nil {
		src, err := header.Open()
		if err != nil {
			common.RespondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		defer src.Close()
		fileName = header.Filename
		file = src
	}

	item, err := h.portfolio.AddItem(c.Request.Context(), principal.ID, in, fileName, file)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// Update обрабатывает PUT /portfolio/:id.
func (h *PortfolioHandler) Update(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid item id")
		return
	}

	var req dto.PortfolioItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	item, err := h.portfolio.UpdateItem(c.Request.Context(), principal.ID, itemID, service.PortfolioItemInput{
		Title:        req.Title,
		Description:  req.Description,
		ExternalLink: req.ExternalLink,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Delete обрабатывает DELETE /portfolio/:id.
func (h *PortfolioHandler) Delete(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid item id")
		return
	}

	if err := h.portfolio.DeleteItem(c.Request.Context(), principal.ID, itemID); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Follow обрабатывает POST /artists/:id/follow (только заказчик).
func (h *PortfolioHandler) Follow(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	artistID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid artist id")
		return
	}

	if err := h.portfolio.Follow(c.Request.Context(), principal.ID, artistID); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Following"})
}

// Unfollow обрабатывает DELETE /artists/:id/follow.
func (h *PortfolioHandler) Unfollow(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	artistID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid artist id")
		return
	}

	if err := h.portfolio.Unfollow(c.Request.Context(), principal.ID, artistID); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// FollowState обрабатывает GET /artists/:id/follow.
func (h *PortfolioHandler) FollowState(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	artistID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid artist id")
		return
	}

	following, count, err := h.portfolio.FollowState(c.Request.Context(), principal.ID, artistID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FollowStateResponse{Following: following, FollowerCount: count})
}

// ListFollowed обрабатывает GET /follows — артисты, на которых подписан заказчик.
func (h *PortfolioHandler) ListFollowed(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	artists, err := h.portfolio.Following(c.Request.Context(), principal.ID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"artists": artists})
}
