package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/artistapp-backend/internal/config"
	"github.com/ignatzorin/artistapp-backend/internal/db"
	"github.com/ignatzorin/artistapp-backend/internal/gateway"
	httpHandlers "github.com/ignatzorin/artistapp-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/artistapp-backend/internal/http/router"
	"github.com/ignatzorin/artistapp-backend/internal/logger"
	"github.com/ignatzorin/artistapp-backend/internal/mail"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
	"github.com/ignatzorin/artistapp-backend/internal/service"
	"github.com/ignatzorin/artistapp-backend/internal/storage"
	"github.com/ignatzorin/artistapp-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	mediaStorage, err := storage.NewMediaStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Платёжный шлюз: Razorpay при наличии ключей, иначе dev заглушка.
	var paymentGateway gateway.Gateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		paymentGateway = gateway.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	} else {
		logger.Log.Warn("main: ключи Razorpay не заданы, используется dev шлюз")
		paymentGateway = gateway.NewDevGateway(cfg.JWTSecret)
	}

	// Почта: без SMTP хоста письма только логируются.
	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logger.Log.Warn("main: SMTP не настроен, письма не отправляются")
		mailer = mail.NoopMailer{}
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	artistRepo := repository.NewArtistRepository(dbConn)
	bookingRepo := repository.NewBookingRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	cancellationRepo := repository.NewCancellationRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	portfolioRepo := repository.NewPortfolioRepository(dbConn)

	// Вебсокеты и уведомления.
	notificationService := service.NewNotificationService(notificationRepo)
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, artistRepo, tokenManager)
	bookingService := service.NewBookingService(bookingRepo, artistRepo, userRepo, hub, mailer)
	paymentService := service.NewPaymentService(paymentRepo, bookingRepo, artistRepo, userRepo, paymentGateway, hub, mailer, cfg.PaymentCurrency)
	cancellationService := service.NewCancellationService(bookingRepo, cancellationRepo, artistRepo, userRepo, hub, mailer)
	artistService := service.NewArtistService(artistRepo, userRepo, mediaStorage)
	portfolioService := service.NewPortfolioService(portfolioRepo, artistRepo, mediaStorage)

	// Фоновые задачи: снятие истёкших теневых банов и чистка сессий.
	go artistService.SweepExpiredShadowBans(ctx, time.Hour)
	go sweepExpiredSessions(ctx, userRepo, 6*time.Hour)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	bookingHandler := httpHandlers.NewBookingHandler(bookingService, cancellationService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	artistHandler := httpHandlers.NewArtistHandler(artistService)
	portfolioHandler := httpHandlers.NewPortfolioHandler(portfolioService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	mediaHandler := httpHandlers.NewMediaHandler(artistService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, bookingHandler, paymentHandler, artistHandler, portfolioHandler, notificationHandler, mediaHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// sweepExpiredSessions периодически удаляет протухшие refresh-сессии.
func sweepExpiredSessions(ctx context.Context, users *repository.UserRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := users.DeleteExpiredSessions(ctx, time.Now()); err != nil {
				logger.Log.WithError(err).Warn("main: не удалось удалить истёкшие сессии")
			}
		}
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
