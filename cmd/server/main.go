package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"recoverydesk/internal/auth"
	"recoverydesk/internal/cache"
	"recoverydesk/internal/config"
	"recoverydesk/internal/database"
	"recoverydesk/internal/handlers"
	"recoverydesk/internal/logger"
	"recoverydesk/internal/middleware"
	"recoverydesk/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config; fall back to a production logger.
		zap.Must(zap.NewProduction()).Fatal("failed to load configuration", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	// Optional integrations. Each one is left nil when not configured.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	documents, err := newDocumentStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize document storage", zap.Error(err))
	}
	log.Info("document storage ready", zap.String("backend", documents.Name()))

	var mailer services.Mailer
	if cfg.SendGridAPIKey != "" && cfg.SendGridFromEmail != "" {
		mailer = services.NewEmailService(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName)
	} else {
		log.Info("SENDGRID_API_KEY not set, notification emails disabled")
	}

	var publisher services.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka := services.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationsTopic, log)
		defer func() {
			if err := kafka.Close(); err != nil {
				log.Warn("failed to close kafka writer", zap.Error(err))
			}
		}()
		publisher = kafka
	}

	var geocoder services.Geocoder
	if maps, err := services.NewMapsService(cfg.GoogleMapsAPIKey); err == nil {
		geocoder = maps
	} else {
		log.Info("google maps disabled", zap.Error(err))
	}

	var google *auth.GoogleSignIn
	if cfg.GoogleSignInEnabled() {
		google = auth.NewGoogleSignIn(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	loc, _ := cfg.ReminderLocation()
	notifications := services.NewNotificationService(services.NewGormNotificationStore(db), mailer, publisher, log)

	var worker *services.ReminderWorker
	if cfg.ReminderEnabled {
		opts := []services.SweepOption{services.WithLocation(loc)}
		if redisClient != nil {
			opts = append(opts, services.WithLocker(cache.NewRedisLocker(redisClient), cfg.ReminderLockTTL))
		}
		sweep := services.NewReminderSweep(services.NewGormReminderStore(db), notifications, log, opts...)

		hour, minute, _ := cfg.ReminderClock()
		worker = services.NewReminderWorker(sweep, services.WorkerConfig{
			Hour:       hour,
			Minute:     minute,
			Location:   loc,
			RunOnStart: cfg.ReminderRunOnStart,
			Timeout:    cfg.ReminderTimeout,
		}, log)
		worker.Start(ctx)
	}

	h := handlers.New(handlers.Deps{
		DB:            db,
		Tokens:        auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry),
		Principals:    auth.NewDBPrincipalLoader(db),
		Google:        google,
		Notifications: notifications,
		Documents:     documents,
		Geocoder:      geocoder,
		Stats:         services.NewStatsService(db),
		Search:        services.NewSearchService(db, log),
		Location:      loc,
		Logger:        log,
	})

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(log), middleware.RequestID(), middleware.Logger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatal("invalid trusted proxies", zap.Error(err))
	}

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.AuthRateLimitRPS), cfg.AuthRateLimitBurst)
	defer limiter.Close()

	routes := handlers.RouteOptions{LoginLimit: limiter.Limit()}
	if cfg.StorageBackend == config.StorageLocal {
		routes.LocalUploadDir = cfg.UploadDir
	}
	h.RegisterRoutes(router, routes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
}

// newDocumentStore picks the blob backend named by STORAGE_BACKEND.
func newDocumentStore(ctx context.Context, cfg *config.Config) (services.DocumentStore, error) {
	switch cfg.StorageBackend {
	case config.StorageCloudinary:
		return services.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	case config.StorageS3:
		return services.NewS3Store(ctx, services.S3Config{
			Bucket:      cfg.S3Bucket,
			Region:      cfg.AWSRegion,
			EndpointURL: cfg.AWSEndpointURL,
			AccessKeyID: cfg.AWSAccessKeyID,
			SecretKey:   cfg.AWSSecretKey,
		})
	default:
		return services.NewLocalStore(cfg.UploadDir, handlers.LocalDocumentsPath)
	}
}
