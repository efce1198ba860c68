package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domains/asset"
	assetHandler "marketplace-backend/internal/domains/asset/handler"
	productHandler "marketplace-backend/internal/domains/product/handler"
	productRepo "marketplace-backend/internal/domains/product/repository"
	productService "marketplace-backend/internal/domains/product/service"
	"marketplace-backend/internal/domains/user"
	userHandler "marketplace-backend/internal/domains/user/handler"
	userRepo "marketplace-backend/internal/domains/user/repository"
	userService "marketplace-backend/internal/domains/user/service"
	infraCache "marketplace-backend/internal/infrastructure/cache"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/infrastructure/queue"
	"marketplace-backend/internal/infrastructure/storage"
	"marketplace-backend/internal/shared/authz"
	"marketplace-backend/pkg/cache"
	"marketplace-backend/pkg/jwt"
)

const (
	memoryCacheSize = 1024
	memoryCacheTTL  = time.Minute
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application.
// API server dùng NewContainer, worker dùng NewWorkerContainer
// (không có services/handlers).
type Container struct {
	// Infrastructure
	Config      *config.Config
	DBConfig    *database.DBConfig
	DB          *database.PostgresDB
	Cache       cache.Cache
	RedisOpt    asynq.RedisClientOpt
	QueueClient *queue.Client // nil khi QUEUE_ENABLED=false
	Assets      *asset.Manager
	JWTManager  *jwt.Manager
	Gate        *authz.Gate

	// Repositories
	UserRepo    user.Repository
	ProductRepo productRepo.RepositoryInterface

	// Services
	UserService    user.Service
	ProductService productService.ServiceInterface

	// Handlers
	UserHandler    *userHandler.UserHandler
	ProductHandler *productHandler.ProductHandler
	AssetHandler   *assetHandler.AssetHandler
}

// ========================================
// CONSTRUCTORS
// ========================================

// NewContainer build toàn bộ dependency graph cho API server.
// Thứ tự: config -> infrastructure -> repositories -> services -> handlers
func NewContainer() (*Container, error) {
	log.Info().Msg("🔧 Initializing DI Container...")

	c, err := newBase()
	if err != nil {
		return nil, err
	}

	c.initServices()
	c.initHandlers()

	log.Info().Msg("🎉 DI Container initialized successfully")
	return c, nil
}

// NewWorkerContainer build phần dùng chung với worker: DB, storage, repositories
func NewWorkerContainer() (*Container, error) {
	log.Info().Msg("🔧 Initializing worker container...")
	return newBase()
}

func newBase() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("✅ Config loaded")

	if err := c.initDatabase(); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.initCache()

	if err := c.initAssets(); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.initRepositories()
	return c, nil
}

// ========================================
// INFRASTRUCTURE
// ========================================

func (c *Container) initDatabase() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}
	c.DBConfig = dbConfig

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	if dbConfig.AutoMigrate {
		if err := database.Migrate(dbConfig); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	log.Info().Msg("✅ Database connected")
	return nil
}

// initCache: Redis lỗi không critical, fallback sang in-memory LRU
func (c *Container) initCache() {
	cfg := c.Config.Redis
	c.RedisOpt = asynq.RedisClientOpt{
		Addr:     cfg.Host,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	redisCache := infraCache.NewRedisCache(cfg.Host, cfg.Password, cfg.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisCache.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️  Redis connection failed, using in-memory cache")
		_ = redisCache.Close()
		c.Cache = infraCache.NewMemoryCache(memoryCacheSize, memoryCacheTTL)
		return
	}

	c.Cache = redisCache
	log.Info().Str("addr", cfg.Host).Msg("✅ Redis connected")
}

func (c *Container) initAssets() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := newStorageBackend(ctx, c.Config)
	if err != nil {
		return fmt.Errorf("failed to init %s storage: %w", c.Config.Storage.Backend, err)
	}

	st := c.Config.Storage
	images := storage.NewImageProcessor(st.MaxImageBytes(), st.MaxImageDimension)
	if st.MaxImagePixels > 0 {
		images.MaxPixels = st.MaxImagePixels
	}
	opts := []asset.Option{
		asset.WithImageProcessor(images),
		asset.WithMaxFileSize(st.MaxUploadBytes()),
	}

	// Redis down -> memory cache, không có retry queue; orphan sweep dọn phần còn lại
	if _, redisUp := c.Cache.(*infraCache.RedisCache); c.Config.Queue.Enabled && redisUp {
		c.QueueClient = queue.NewClient(c.RedisOpt, c.Config.Queue.RemoveMaxRetry)
		opts = append(opts, asset.WithRetryQueue(c.QueueClient))
	}

	c.Assets = asset.NewManager(backend, opts...)
	log.Info().
		Str("backend", st.Backend).
		Bool("retry_queue", c.QueueClient != nil).
		Msg("✅ Asset manager initialized")
	return nil
}

// newStorageBackend chọn backend theo STORAGE_BACKEND
func newStorageBackend(ctx context.Context, cfg *config.Config) (asset.Backend, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return storage.NewMinIOStorage(ctx, cfg.MinIO)
	case "s3":
		return storage.NewS3Storage(ctx, cfg.S3)
	default:
		return storage.NewLocalStorage(cfg.Storage.UploadDir)
	}
}

// ========================================
// DOMAIN LAYERS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.ProductRepo = productRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	c.JWTManager = jwt.NewManager(c.Config.JWT.Secret, c.Config.JWT.AccessTTL())
	c.Gate = authz.NewGate(c.JWTManager, c.UserRepo)

	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager, c.Assets, c.Cache)
	c.ProductService = productService.NewProductService(c.ProductRepo, c.Assets, c.Cache)
}

func (c *Container) initHandlers() {
	st := c.Config.Storage

	c.UserHandler = userHandler.NewUserHandler(c.UserService, st.MaxImageBytes())
	c.ProductHandler = productHandler.NewProductHandler(c.ProductService, st.MaxImageBytes(), st.MaxUploadBytes())
	c.AssetHandler = assetHandler.NewAssetHandler(c.Assets, c.ProductRepo, c.UserRepo)
}

// ========================================
// CLEANUP
// ========================================

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("🧹 Cleaning up container resources...")

	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close queue client")
		}
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Info().Msg("✅ Container cleanup completed")
}
