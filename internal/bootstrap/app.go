package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"inspection-backend/internal/attachments"
	"inspection-backend/internal/catalog"
	"inspection-backend/internal/events"
	"inspection-backend/internal/findings"
	"inspection-backend/internal/reports"
	"inspection-backend/internal/services/health"
	"inspection-backend/internal/shared/config"
	"inspection-backend/internal/shared/server"
	"inspection-backend/internal/shared/storage/db"
	"inspection-backend/internal/shared/storage/object"
	gcsstore "inspection-backend/internal/shared/storage/object/gcs"
	localstore "inspection-backend/internal/shared/storage/object/local"
	miniostore "inspection-backend/internal/shared/storage/object/minio"
	s3store "inspection-backend/internal/shared/storage/object/s3"
	"inspection-backend/internal/shared/telemetry"
	"inspection-backend/internal/visits"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Events events.Publisher

	VisitsRepo      visits.Repo
	FindingsRepo    findings.Repo
	AttachmentsRepo attachments.Repo
	CatalogRepo     catalog.Repo
	ReportsRepo     reports.Repo

	VisitsService      *visits.Service
	FindingsService    *findings.Service
	AttachmentsService *attachments.Service
	ReportsService     *reports.Service
}

// Build connects storage and wires services, handlers and routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := buildEvents(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Events: publisher,
	}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	deps := server.RouterDeps{
		Config:             cfg,
		CatalogHandler:     catalog.NewHandler(app.CatalogRepo),
		VisitsHandler:      visits.NewHandler(app.VisitsService),
		FindingsHandler:    findings.NewHandler(app.FindingsService),
		AttachmentsHandler: attachments.NewHandler(app.AttachmentsService),
		ReportsHandler:     reports.NewHandler(app.ReportsService),
		Health:             health.NewService(sqlDB),
	}
	if cfg.ObjectStoreType == "local" {
		deps.Files = store
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

// Close releases connections held by the app.
func (a *App) Close() error {
	if c, ok := a.Events.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("DATABASE_URL empty; using in-memory repositories", nil)
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("database connect failed; using in-memory repositories", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
	case "minio":
		return miniostore.New(miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	case "gcs":
		return gcsstore.New(ctx, cfg.GCSBucket, "")
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func buildEvents(cfg config.Config) (events.Publisher, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return events.NopPublisher{}, nil
	}
	pub, err := events.NewRedisPublisher(cfg.RedisURL, cfg.ReportEventsChannel)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("redis unavailable; report events disabled", map[string]any{"error": err.Error()})
			return events.NopPublisher{}, nil
		}
		return nil, err
	}
	return pub, nil
}

func buildServices(ctx context.Context, app *App) error {
	if app.DB != nil {
		app.VisitsRepo = &visits.PGRepo{DB: app.DB}
		app.FindingsRepo = &findings.PGRepo{DB: app.DB}
		app.AttachmentsRepo = &attachments.PGRepo{DB: app.DB}
		app.CatalogRepo = &catalog.PGRepo{DB: app.DB}
		app.ReportsRepo = &reports.PGRepo{DB: app.DB}
	} else {
		visitRepo := visits.NewMemoryRepo()
		app.VisitsRepo = visitRepo
		app.FindingsRepo = findings.NewMemoryRepo(visitRepo)
		app.AttachmentsRepo = attachments.NewMemoryRepo()
		app.ReportsRepo = reports.NewMemoryRepo()
		catalogRepo := catalog.NewMemoryRepo()
		if _, err := catalog.Seed(ctx, catalogRepo); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		app.CatalogRepo = catalogRepo
	}

	app.VisitsService = &visits.Service{Repo: app.VisitsRepo}
	app.FindingsService = &findings.Service{Repo: app.FindingsRepo, Visits: app.VisitsRepo}
	app.AttachmentsService = attachments.NewService(app.Store, app.AttachmentsRepo)

	fetcher := &reports.StoreFetcher{
		BaseURL: app.Config.PublicBaseURL,
		Store:   app.Store,
		Next:    reports.NewHTTPFetcher(app.Config.ImageFetchTimeout),
	}
	app.ReportsService = &reports.Service{
		Assembler: &reports.Assembler{
			Visits:      app.VisitsRepo,
			Findings:    app.FindingsRepo,
			Attachments: app.AttachmentsRepo,
			Catalog:     app.CatalogRepo,
		},
		Compiler:  &reports.Compiler{Images: &reports.ImageNormalizer{Fetcher: fetcher}},
		Persister: &reports.Persister{Store: app.Store, Repo: app.ReportsRepo},
		Repo:      app.ReportsRepo,
		Events:    app.Events,
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
