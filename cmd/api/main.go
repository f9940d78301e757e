package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"jobsite/internal/app"
	"jobsite/internal/config"
	"jobsite/internal/database"
	apphttp "jobsite/internal/http"
	"jobsite/internal/http/handlers"
	"jobsite/internal/http/metrics"
	httpmw "jobsite/internal/http/middleware"
	"jobsite/internal/http/response"
	"jobsite/internal/notify"
	"jobsite/internal/observability"
	"jobsite/internal/repository/postgres"
	"jobsite/internal/security"
	"jobsite/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, database.PostgresConfig{
		Driver:          cfg.DBDriver,
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdle:     cfg.DBConnMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
		PingTimeout:     30 * time.Second,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database schema applied")
	}

	resumes, err := storage.NewLocalResumeStore(cfg.ResumeDir, cfg.ResumeMaxBytes)
	if err != nil {
		return err
	}

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.SMTPEnabled() {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		logger.Warn("smtp host missing, emails will only be logged")
	}

	var limiter httpmw.Limiter = httpmw.NewRateLimiter()
	if redisClient := connectRedis(ctx, cfg.RedisURL, logger); redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("redis close failed", slog.String("error", err.Error()))
			}
		}()
		limiter = httpmw.NewRedisLimiter(redisClient, limiter, logger)
	}

	txManager := postgres.NewTxManager(db)
	userRepo := postgres.NewUserRepository(db)
	refreshRepo := postgres.NewRefreshTokenRepository(db)
	resetRepo := postgres.NewPasswordResetRepository(db)
	jobRepo := postgres.NewJobRepository(db)
	applicationRepo := postgres.NewApplicationRepository(db)

	jwtProvider := security.NewJWTProvider(cfg.JWTSecret)
	hasher := security.NewPasswordHasher(security.DefaultArgon2Params)

	authService := app.NewAuthService(userRepo, refreshRepo, resetRepo, hasher, jwtProvider, notify.NewNotifier(mailer), txManager, logger, app.AuthSettings{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		ResetTTL:   cfg.PasswordResetTTL,
		ResetURL:   cfg.PasswordResetURL,
	})
	userService := app.NewUserService(userRepo, jwtProvider)
	jobService := app.NewJobService(jobRepo, applicationRepo, resumes, logger)
	applicationService := app.NewApplicationService(applicationRepo, jobRepo, txManager, resumes, logger)
	dashboardService := app.NewDashboardService(jobRepo)

	collector := metrics.NewCollector()
	response.SetErrorCollector(collector)

	router := apphttp.NewRouter(apphttp.RouterDependencies{
		AuthHandler:        handlers.NewAuthHandler(authService, userService),
		JobHandler:         handlers.NewJobHandler(jobService, dashboardService),
		ApplicationHandler: handlers.NewApplicationHandler(applicationService, limiter),
		AuthMiddleware:     httpmw.NewAuthMiddleware(userService),
		Metrics:            collector,
		Limiter:            limiter,
		RequestTimeout:     cfg.RequestTimeout,
		MaxBodyBytes:       cfg.MaxBodyBytes,
	})
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("api started", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("api shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// connectRedis returns nil when REDIS_URL is unset or the server does not
// answer; rate limiting then stays in process.
func connectRedis(ctx context.Context, redisURL string, logger *slog.Logger) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("redis url parse failed", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("redis ping failed", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	return client
}
