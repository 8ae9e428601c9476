package router

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/internal/handlers"
	"github.com/anonto42/tracle/internal/mailer"
	"github.com/anonto42/tracle/internal/middleware"
	"github.com/anonto42/tracle/internal/migrations"
	"github.com/anonto42/tracle/internal/notifications"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/anonto42/tracle/internal/tokens"
	"github.com/anonto42/tracle/pkg/config"
	"github.com/anonto42/tracle/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Deps are the long-lived collaborators SetupRoutes wires into handlers.
type Deps struct {
	Config   *config.Config
	DB       *config.DB
	Emails   handlers.EmailRenderer
	Firebase firebase.IDTokenVerifier // nil disables Firebase sign-in
	Log      logrus.FieldLogger
}

func newMailer(d Deps) (mailer.Mailer, error) {
	switch d.Config.MailBackend {
	case "mongo":
		if d.DB.Mongo == nil {
			return nil, fmt.Errorf("mongo mail backend needs a MongoDB connection")
		}
		return mailer.NewMongoOutbox(d.DB.Mongo.Database(d.Config.MongoDatabase), d.Config.MailFrom), nil
	default:
		return mailer.NewLogMailer(d.Log, d.Config.MailFrom), nil
	}
}

// SetupRoutes migrates the schema, configures all application routes and
// injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) error {
	log := d.Log
	cfg := d.Config
	pgdb := d.DB.Postgres

	if err := migrations.Run(pgdb, log); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("PostgreSQL migrations completed.")

	sqlDB, err := pgdb.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB from GORM: %w", err)
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	channelRepo := repositories.NewPostgresChannelRepository(pgdb)
	videoRepo := repositories.NewPostgresVideoRepository(pgdb)
	categoryRepo := repositories.NewPostgresCategoryRepository(pgdb)
	subscriptionRepo := repositories.NewPostgresSubscriptionRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	statsRepo := repositories.NewSQLStatsRepository(sqlDB, sq.Dollar)

	mail, err := newMailer(d)
	if err != nil {
		return err
	}
	log.WithField("backend", cfg.MailBackend).Info("Mailer configured.")

	sessions := auth.NewSessions(cfg.SecretKey, cfg.SessionTTL, !cfg.IsDevelopment())
	notifier := notifications.NewService(channelRepo, subscriptionRepo, notificationRepo, log)

	e.HTTPErrorHandler = handlers.HTTPErrorHandler(log)
	e.Use(middleware.LoadIdentity(sessions, userRepo, channelRepo, log))
	requireLogin := middleware.RequireLogin()

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	homeHandler := handlers.NewHomeHandler(videoRepo, categoryRepo)
	homeHandler.RegisterHomeRoutes(e)
	log.Info("Home routes configured.")

	authHandler := handlers.NewAuthHandler(handlers.AuthConfig{
		Users:      userRepo,
		Channels:   channelRepo,
		Sessions:   sessions,
		Activation: tokens.NewActivationGenerator(cfg.SecretKey, cfg.TokenTTL),
		Reset:      tokens.NewPasswordResetGenerator(cfg.SecretKey, cfg.TokenTTL),
		Mailer:     mail,
		Emails:     d.Emails,
		Firebase:   d.Firebase,
		Domain:     cfg.Domain,
		Log:        log,
	})
	authHandler.RegisterAuthRoutes(e)
	log.WithField("firebase", d.Firebase != nil).Info("Auth routes configured.")

	watchHandler := handlers.NewWatchHandler(videoRepo, commentRepo, subscriptionRepo, notifier, log)
	watchHandler.RegisterWatchRoutes(e, requireLogin)
	log.Info("Watch routes configured.")

	dashboardHandler := handlers.NewDashboardHandler(channelRepo, videoRepo, categoryRepo, notifier, log)
	dashboardHandler.RegisterDashboardRoutes(e, requireLogin)
	log.Info("Dashboard routes configured.")

	channelHandler := handlers.NewChannelHandler(channelRepo, videoRepo, subscriptionRepo, statsRepo, log)
	channelHandler.RegisterChannelRoutes(e, requireLogin)
	log.Info("Channel routes configured.")

	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(e, requireLogin)
	log.Info("Notification routes configured.")

	log.Info("All routes configured.")
	return nil
}
