package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/artistapp-backend/internal/config"
	"github.com/ignatzorin/artistapp-backend/internal/http/handlers"
	"github.com/ignatzorin/artistapp-backend/internal/http/middleware"
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	bookingHandler *handlers.BookingHandler,
	paymentHandler *handlers.PaymentHandler,
	artistHandler *handlers.ArtistHandler,
	portfolioHandler *handlers.PortfolioHandler,
	notificationHandler *handlers.NotificationHandler,
	mediaHandler *handlers.MediaHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/user/register", authHandler.RegisterUser)
		authGroup.POST("/artist/register", authHandler.RegisterArtist)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты каталога
	api.GET("/ws", wsHandler.Handle)
	api.GET("/artists/search", artistHandler.Search)
	api.GET("/artists/:id", middleware.UUIDValidator("id"), artistHandler.GetArtist)
	api.GET("/artists/:id/portfolio", middleware.UUIDValidator("id"), portfolioHandler.ListForArtist)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", artistHandler.GetMe)
		protected.PUT("/profile", artistHandler.UpdateMe)

		protected.GET("/auth/sessions", authHandler.ListSessions)
		protected.DELETE("/auth/sessions/:id", middleware.UUIDValidator("id"), authHandler.DeleteSession)

		protected.GET("/bookings/my", bookingHandler.ListMy)
		protected.GET("/bookings/:id", middleware.UUIDValidator("id"), bookingHandler.Get)
		protected.GET("/bookings/:id/payments", middleware.UUIDValidator("id"), paymentHandler.GetPayment)

		// Остаток может закрыть любая из сторон сделки; принадлежность
		// проверяет сервис, поэтому ролевого фильтра здесь нет.
		protected.POST("/bookings/:id/payments/remaining", middleware.UUIDValidator("id"), paymentHandler.CreateRemainingOrder)
		protected.POST("/bookings/:id/payments/remaining/verify", middleware.UUIDValidator("id"), paymentHandler.VerifyRemaining)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
	}

	// Операции заказчика
	userOnly := api.Group("/")
	userOnly.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleUser))
	{
		userOnly.POST("/bookings", bookingHandler.Create)
		userOnly.POST("/bookings/:id/confirm", middleware.UUIDValidator("id"), bookingHandler.Confirm)
		userOnly.POST("/bookings/:id/reject", middleware.UUIDValidator("id"), bookingHandler.Reject)

		userOnly.POST("/bookings/:id/payments/advance", middleware.UUIDValidator("id"), paymentHandler.CreateAdvanceOrder)
		userOnly.POST("/bookings/:id/payments/advance/verify", middleware.UUIDValidator("id"), paymentHandler.VerifyAdvance)
		userOnly.POST("/bookings/:id/refund", middleware.UUIDValidator("id"), paymentHandler.RequestRefund)

		userOnly.POST("/artists/:id/follow", middleware.UUIDValidator("id"), portfolioHandler.Follow)
		userOnly.DELETE("/artists/:id/follow", middleware.UUIDValidator("id"), portfolioHandler.Unfollow)
		userOnly.GET("/artists/:id/follow", middleware.UUIDValidator("id"), portfolioHandler.FollowState)
		userOnly.GET("/follows", portfolioHandler.ListFollowed)
	}

	// Операции артиста
	artistOnly := api.Group("/")
	artistOnly.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleArtist))
	{
		artistOnly.POST("/bookings/:id/respond", middleware.UUIDValidator("id"), bookingHandler.Respond)
		artistOnly.POST("/bookings/:id/cancel", middleware.UUIDValidator("id"), bookingHandler.Cancel)
		artistOnly.GET("/artists/me/cancellations", bookingHandler.CancellationHistory)
		artistOnly.POST("/artists/me/image", mediaHandler.UploadProfileImage)

		artistOnly.POST("/portfolio", portfolioHandler.Create)
		artistOnly.PUT("/portfolio/:id", middleware.UUIDValidator("id"), portfolioHandler.Update)
		artistOnly.DELETE("/portfolio/:id", middleware.UUIDValidator("id"), portfolioHandler.Delete)
	}

	return r
}
