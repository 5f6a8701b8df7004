package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/artistapp-backend/internal/http/handlers/common"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

// Разрешённые типы изображений для загрузки
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Разрешённые расширения файлов
var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaHandler управляет загрузкой изображений профиля.
type MediaHandler struct {
	artists *service.ArtistService
}

// NewMediaHandler создаёт хэндлер.
func NewMediaHandler(artists *service.ArtistService) *MediaHandler {
	return &MediaHandler{artists: artists}
}

// UploadProfileImage обрабатывает POST /artists/me/image (только артист).
func (h *MediaHandler) UploadProfileImage(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "Field file is required")
		return
	}

	src, msg, err := openValidatedImage(header)
	if err != nil {
		if msg != "" {
			common.RespondBadRequest(c, msg)
		} else {
			common.RespondError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	defer src.Close()

	path, err := h.artists.UploadProfileImage(c.Request.Context(), principal.ID, header.Filename, src)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"profileImage": filepath.ToSlash(path)})
}

// openValidatedImage открывает файл и проверяет, что это изображение
// разрешённого типа по расширению и магическим байтам. Возвращает файл с
// позицией в начале потока.
func openValidatedImage(header *multipart.FileHeader) (multipart.File, string, error) {
	if header.Size == 0 {
		return nil, "File must not be empty", fmt.Errorf("empty file")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		return nil, "Unsupported file extension", fmt.Errorf("extension %s not allowed", ext)
	}

	src, err := header.Open()
	if err != nil {
		return nil, "", err
	}

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		src.Close()
		return nil, "Failed to read file", err
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown || !allowedImageTypes[kind.MIME.Value] {
		src.Close()
		return nil, "File must be a JPEG, PNG, GIF or WebP image", fmt.Errorf("unsupported content type")
	}

	// Расширение должно соответствовать реальному типу файла.
	expectedExt := "." + kind.Extension
	jpegAlias := (ext == ".jpg" && expectedExt == ".jpeg") || (ext == ".jpeg" && expectedExt == ".jpg")
	if ext != expectedExt && !jpegAlias {
		src.Close()
		return nil, fmt.Sprintf("File extension (%s) does not match its content (%s)", ext, expectedExt), fmt.Errorf("extension mismatch")
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		src.Close()
		return nil, "", err
	}

	return src, "", nil
}
