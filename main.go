package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/khoilion/store-be/common/logger"
	"github.com/khoilion/store-be/controllers"
	"github.com/khoilion/store-be/database"
	"github.com/khoilion/store-be/events"
	"github.com/khoilion/store-be/middleware"
	awspkg "github.com/khoilion/store-be/pkg/aws"
	"github.com/khoilion/store-be/repository"
	"github.com/khoilion/store-be/routes"
	"github.com/khoilion/store-be/services"
)

const serviceName = "store-be"

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

func main() {
	ctx := context.Background()

	cfg, err := LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	awsCfg, err := awspkg.LoadAWSConfig(ctx, awspkg.Options{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		zap.NewExample().Fatal("Failed to load AWS config", zap.Error(err))
	}

	var sink io.Writer
	var sinkErr error
	if cfg.CloudWatchLogGroup != "" {
		if w, err := awspkg.NewCloudWatchLogsWriter(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName); err == nil {
			sink = w
		} else {
			sinkErr = err
		}
	}

	log, err := logger.New(cfg.Env, sink)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	if sinkErr != nil {
		log.Warn("CloudWatch Logs disabled", zap.Error(sinkErr))
	}

	if cfg.AWSUseSecrets {
		cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg, cfg.SecretsPrefix), log)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	// --- 1. Stores ---

	mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, log)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	productRepo, categoryRepo := buildCatalog(cfg, awsCfg, mongoDB, log)
	cartRepo := repository.NewCartRepository(mongoDB.DB)

	userRepo, pg := buildUsers(cfg, mongoDB, log)

	for name, ensure := range map[string]func(context.Context) error{
		"products":   productRepo.EnsureIndexes,
		"categories": categoryRepo.EnsureIndexes,
		"carts":      cartRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Warn("Failed to ensure indexes", zap.String("collection", name), zap.Error(err))
		}
	}

	health := map[string]routes.Pinger{"mongo": mongoDB}

	var locker services.Locker = services.NewLocalLocker()
	cartOpts := []services.CartServiceOption{}
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		locker = repository.NewRedisLocker(redisClient, cfg.CartLockTTL, cfg.CartLockWait, log)
		cartOpts = append(cartOpts, services.WithIdempotency(repository.NewIdempotencyRepository(redisClient, cfg.IdempotencyTTL)))
		health["redis"] = redisPinger{client: redisClient}
	} else {
		log.Info("REDIS_URL not set; cart locks are process-local and idempotency keys are ignored")
	}

	// --- 2. Events & metrics ---

	publisher := buildPublisher(cfg, awsCfg)
	emitter := events.NewEmitter(publisher, log)
	metrics := awspkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)
	cartOpts = append(cartOpts, services.WithCartEvents(emitter), services.WithCartMetrics(metrics))

	// --- 3. Services ---

	tokens, err := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		log.Fatal("Failed to create token service", zap.Error(err))
	}

	// Users are only checked against the local store when it is the source of truth.
	var cartUsers repository.UserRepo
	if !cfg.TrustGatewayHeaders {
		cartUsers = userRepo
	}

	cartService := services.NewCartService(cartRepo, productRepo, categoryRepo, cartUsers, locker, log, cartOpts...)
	productService := services.NewProductService(productRepo, categoryRepo, cartService, emitter, metrics, log)
	categoryService := services.NewCategoryService(categoryRepo, productService, emitter, metrics, log)
	uploadService := services.NewUploadService(
		awspkg.NewS3Presigner(awsCfg, cfg.S3Bucket),
		services.UploadConfig{KeyPrefix: cfg.S3Prefix, CDNDomain: cfg.CDNDomain, Endpoint: cfg.S3Endpoint},
		log,
	)
	authService := services.NewAuthService(userRepo, tokens, log)

	// --- 4. HTTP ---

	rv := controllers.NewRequestValidator()
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		cors.New(corsConfig(cfg.AllowedOrigins)),
		middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		middleware.MetricsMiddleware(metrics, serviceName),
		middleware.Timeout(middleware.DefaultRequestTimeout),
	)

	routes.RegisterRoutes(r, routes.Controllers{
		Products:   controllers.NewProductController(productService, rv),
		Categories: controllers.NewCategoryController(categoryService, rv),
		Cart:       controllers.NewCartController(cartService, rv),
		Upload:     controllers.NewUploadController(uploadService),
		Auth:       controllers.NewAuthController(authService, rv),
	}, middleware.AuthMiddleware(middleware.AuthConfig{Tokens: tokens, TrustGateway: cfg.TrustGatewayHeaders}))
	routes.RegisterHealth(r, health)

	// --- 5. Graceful shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Store API starting",
			zap.String("port", cfg.Port),
			zap.String("catalog_store", cfg.CatalogStore),
			zap.String("user_store", cfg.UserStore),
			zap.String("events", cfg.EventsBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Store API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := publisher.Close(); err != nil {
		log.Error("Failed to close event publisher", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if pg != nil {
		if err := database.ClosePostgres(pg); err != nil {
			log.Error("Failed to close Postgres", zap.Error(err))
		}
	}
	if err := mongoDB.Close(); err != nil {
		log.Error("Failed to close MongoDB", zap.Error(err))
	}
	log.Info("Store API stopped gracefully")
}

func buildCatalog(cfg *Config, awsCfg sdkaws.Config, mongoDB *database.Mongo, log *zap.Logger) (repository.ProductRepo, repository.CategoryRepo) {
	if cfg.CatalogStore == StoreDynamo {
		client := dynamodb.NewFromConfig(awsCfg)
		log.Info("Catalog backed by DynamoDB",
			zap.String("products_table", cfg.DDBProductsTable),
			zap.String("categories_table", cfg.DDBCategoriesTable))
		return repository.NewDynamoProductAdapter(client, cfg.DDBProductsTable),
			repository.NewDynamoCategoryAdapter(client, cfg.DDBCategoriesTable)
	}
	return repository.NewProductRepository(mongoDB.DB), repository.NewCategoryRepository(mongoDB.DB)
}

func buildUsers(cfg *Config, mongoDB *database.Mongo, log *zap.Logger) (repository.UserRepo, *gorm.DB) {
	if cfg.UserStore == StorePostgres {
		db, err := database.ConnectPostgres(cfg.PostgresDSN, log)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		return repository.NewGormUserRepository(db), db
	}

	users := repository.NewUserRepository(mongoDB.DB)
	if err := users.EnsureIndexes(context.Background()); err != nil {
		log.Warn("Failed to ensure user indexes", zap.Error(err))
	}
	return users, nil
}

func buildPublisher(cfg *Config, awsCfg sdkaws.Config) events.Publisher {
	switch cfg.EventsBackend {
	case EventsSNS:
		return events.NewSNSPublisher(awspkg.NewSNSClient(awsCfg), cfg.SNSTopicARN)
	case EventsSQS:
		return events.NewSQSPublisher(awspkg.NewSQSClient(awsCfg), cfg.SQSQueueURL)
	case EventsKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		return events.Noop{}
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", controllers.IdempotencyHeader, "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
