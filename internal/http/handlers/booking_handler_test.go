package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/artistapp-backend/internal/http/middleware"
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

func TestBookingHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BookingHandler{}
	r.POST("/bookings", handler.Create)

	req, _ := http.NewRequest("POST", "/bookings", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BookingHandler{}
	r.GET("/bookings/:id", middleware.UUIDValidator("id"), handler.Get)

	req, _ := http.NewRequest("GET", "/bookings/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tm := service.NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests", time.Minute, time.Hour)

	r := gin.New()
	r.GET("/protected", middleware.AuthMiddleware(tm), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_WrongRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tm := service.NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests", time.Minute, time.Hour)

	pair, _, _, err := tm.GeneratePair(models.Principal{ID: uuid.New(), Role: models.RoleUser})
	require.NoError(t, err)

	r := gin.New()
	r.POST("/bookings/:id/cancel",
		middleware.AuthMiddleware(tm),
		middleware.RequireRole(models.RoleArtist),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	req, _ := http.NewRequest("POST", "/bookings/2b1f7fa3-1d3a-4f24-9402-1f1cf5f8cbb1/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_MatchingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tm := service.NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests", time.Minute, time.Hour)

	pair, _, _, err := tm.GeneratePair(models.Principal{ID: uuid.New(), Role: models.RoleArtist})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/artists/me/cancellations",
		middleware.AuthMiddleware(tm),
		middleware.RequireRole(models.RoleArtist),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	req, _ := http.NewRequest("GET", "/artists/me/cancellations", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
