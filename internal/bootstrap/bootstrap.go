package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/elimishatrust/studyloan/internal/app/controllers"
	appMigrations "github.com/elimishatrust/studyloan/internal/app/migrations"
	appRepos "github.com/elimishatrust/studyloan/internal/app/repositories"
	appRoutes "github.com/elimishatrust/studyloan/internal/app/routes"
	appServices "github.com/elimishatrust/studyloan/internal/app/services"
	"github.com/elimishatrust/studyloan/internal/config"
	"github.com/elimishatrust/studyloan/internal/db"
	appMiddleware "github.com/elimishatrust/studyloan/internal/middleware"
	pkgAuth "github.com/elimishatrust/studyloan/internal/pkg/auth"
	"github.com/elimishatrust/studyloan/internal/pkg/email"
	"github.com/elimishatrust/studyloan/internal/pkg/filestorage"
	"github.com/elimishatrust/studyloan/internal/pkg/logger"
	"github.com/elimishatrust/studyloan/internal/pkg/metrics"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	FileStorage    filestorage.FileStorage
	Notifier       email.Notifier
	Logger         zerolog.Logger

	closers []func() error
}

// Close releases resources owned by the dependencies, such as the kafka writer
func (d *Dependencies) Close() error {
	var firstErr error
	for _, closeFn := range d.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Service: "studyloan",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs the embedded migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.Migrate(ctx, appMigrations.Files()); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database.Pool, nil
}

// NewFileStorage builds the storage driver selected by configuration
func NewFileStorage(cfg *config.Config, lgr zerolog.Logger) (filestorage.FileStorage, error) {
	switch cfg.Storage.Driver {
	case "cloudinary":
		return filestorage.NewCloudinaryStorage(cfg.Storage.CloudinaryURL, cfg.Storage.Folder, lgr)
	default:
		return filestorage.NewLocalStorage(cfg.Storage.Path, cfg.Storage.PublicURL, lgr)
	}
}

// NewNotifier builds the notification driver selected by configuration.
// The returned close function is never nil.
func NewNotifier(cfg *config.Config, lgr zerolog.Logger) (email.Notifier, func() error) {
	n := cfg.Notification
	switch n.Driver {
	case "smtp":
		return email.NewSMTPNotifier(email.SMTPConfig{
			Host:      n.SMTP.Host,
			Port:      n.SMTP.Port,
			Username:  n.SMTP.Username,
			Password:  n.SMTP.Password,
			FromName:  n.SMTP.FromName,
			FromEmail: n.SMTP.FromEmail,
			UseTLS:    n.SMTP.UseTLS,
		}, lgr), func() error { return nil }
	case "kafka":
		kn := email.NewKafkaNotifier(email.KafkaConfig{
			Brokers:  n.Kafka.Brokers,
			Topic:    n.Kafka.Topic,
			Username: n.Kafka.Username,
			Password: n.Kafka.Password,
			UseTLS:   n.Kafka.UseTLS,
		})
		return kn, kn.Close
	default:
		return email.NewLogNotifier(lgr), func() error { return nil }
	}
}

// BuildDependencies initializes services, controllers and middleware on top of store.
// Storage and notifier default to the configured drivers when nil.
func BuildDependencies(cfg *config.Config, store appRepos.Store, storage filestorage.FileStorage, notifier email.Notifier, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if storage == nil {
		var err error
		storage, err = NewFileStorage(cfg, lgr)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to initialize file storage")
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
	}
	deps.FileStorage = storage

	if notifier == nil {
		var closeFn func() error
		notifier, closeFn = NewNotifier(cfg, lgr)
		deps.closers = append(deps.closers, closeFn)
	}
	deps.Notifier = notifier

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.Services = appServices.NewServices(appServices.Dependencies{
		Store:    store,
		Hasher:   pkgAuth.NewPasswordHasher(0),
		JWT:      deps.JWTService,
		Notifier: notifier,
		Storage:  storage,
		Logger:   lgr,
		Options: appServices.Options{
			FrontendURL:       cfg.FrontendURL,
			ApplicationsInbox: cfg.Notification.ApplicationsInbox,
			NotifyTimeout:     cfg.NotificationTimeout(),
			MaxUploadBytes:    cfg.Storage.MaxUploadBytes,
		},
	})

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.Services.Auth)

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.Services.Auth, lgr),
		Applications: appControllers.NewApplicationController(deps.Services.Applications, lgr),
		Documents:    appControllers.NewDocumentController(deps.Services.Documents, lgr),
		Review:       appControllers.NewReviewController(deps.Services.Review, lgr),
		Users:        appControllers.NewUserController(deps.Services.Users, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	}

	if err := appMiddleware.RegisterBindingRules(); err != nil {
		return nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(),
		appMiddleware.RequestLogger(lgr),
		metrics.Middleware(),
		appMiddleware.CORS([]string{cfg.FrontendURL}),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	if local, ok := deps.FileStorage.(*filestorage.LocalStorage); ok {
		router.Static("/uploads", local.BasePath())
		lgr.Info().Str("path", local.BasePath()).Msg("Static file serving configured for uploads directory")
	}

	return router, nil
}
