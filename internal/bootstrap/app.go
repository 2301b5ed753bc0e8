package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/Raunaq22/Musicbrew-sub000/internal/handler/http"
	wsHandler "github.com/Raunaq22/Musicbrew-sub000/internal/handler/websocket"
	"github.com/Raunaq22/Musicbrew-sub000/internal/hub"
	gormpersistence "github.com/Raunaq22/Musicbrew-sub000/internal/infra/persistence/gorm"
	"github.com/Raunaq22/Musicbrew-sub000/internal/infra/setup"
	redisstate "github.com/Raunaq22/Musicbrew-sub000/internal/infra/state/redis"
	"github.com/Raunaq22/Musicbrew-sub000/internal/middleware"
	"github.com/Raunaq22/Musicbrew-sub000/internal/service"
	"github.com/Raunaq22/Musicbrew-sub000/internal/tasks"
	"github.com/Raunaq22/Musicbrew-sub000/internal/worker"
)

// Config holds everything loaded from the environment.
type Config struct {
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	JWTSecret         string
	ServerPort        string
	LogLevel          string
	AppEnv            string
	KeyPrefix         string
	RateLimitMax      int
	RateLimitWindow   time.Duration
	TypingTTL         time.Duration
	ActivityRetention time.Duration
}

// LoadConfig reads configuration from the environment, with .env as an
// optional convenience for development.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AppEnv:        os.Getenv("APP_ENV"),
		KeyPrefix:     os.Getenv("REDIS_KEY_PREFIX"),

		RateLimitMax:      100,
		RateLimitWindow:   1 * time.Second,
		TypingTTL:         service.DefaultTypingTTL,
		ActivityRetention: 30 * 24 * time.Hour,
	}

	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		redisDB, err := strconv.Atoi(redisDBStr)
		if err != nil {
			return nil, fmt.Errorf("environment variable REDIS_DB must be an integer, got '%s'", redisDBStr)
		}
		cfg.RedisDB = redisDB
	}

	if cfg.DBHost == "" {
		cfg.DBHost = "127.0.0.1"
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "3306"
	}
	if cfg.DBName == "" {
		cfg.DBName = "musicbrew_db"
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "lr:"
	}
	if cfg.DBUser == "" {
		return nil, fmt.Errorf("environment variable DB_USER must be set")
	}
	if cfg.DBPassword == "" {
		return nil, fmt.Errorf("environment variable DB_PASSWORD must be set")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App bundles the application's components for startup and shutdown.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	ChatService *service.ChatService
	HttpServer  *http.Server

	redisClientOpt asynq.RedisClientOpt
	scheduler      *asynq.Scheduler
}

// NewApp creates and wires all application components.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded")

	// Infrastructure.
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)

	// Repositories.
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	activityRepo := gormpersistence.NewGormActivityRepository(db)
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)

	// Services. The room locker is shared so lifecycle and queue mutations
	// on the same room serialize against each other.
	locker := service.NewRoomLocker()
	roomService := service.NewRoomService(roomRepo, activityRepo, stateRepo, asynqClient, locker)
	queueService := service.NewQueueService(roomRepo, stateRepo, asynqClient, locker)
	chatService := service.NewChatService(stateRepo, cfg.TypingTTL)
	log.Info("Services initialized")

	// Gateway.
	presence := hub.NewPresenceTracker()
	sessionHub := hub.NewHub(presence, roomService, queueService, chatService, stateRepo, redisClient)

	// Handlers.
	roomHandler := httpHandler.NewRoomHandler(roomService, queueService, presence)
	socketHandler := wsHandler.NewWebSocketHandler(sessionHub)

	// Worker.
	workerServer := worker.NewWorkerServer(redisClientOpt, activityRepo, cfg.ActivityRetention, log)

	// Router.
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api").Use(middleware.Auth(cfg.JWTSecret))
	{
		api.POST("/rooms", roomHandler.CreateRoom)
		api.GET("/rooms", roomHandler.ListRooms)
		api.GET("/rooms/:id", roomHandler.GetRoom)
		api.PUT("/rooms/:id", roomHandler.UpdateRoom)
		api.DELETE("/rooms/:id", roomHandler.EndRoom)
		api.POST("/rooms/:id/queue", roomHandler.AppendTrack)
		api.DELETE("/rooms/:id/queue/:trackId", roomHandler.RemoveTrack)
		api.GET("/rooms/:id/activity", roomHandler.RoomActivity)
	}
	wsRoutes := router.Group("/ws").Use(middleware.Auth(cfg.JWTSecret))
	{
		wsRoutes.GET("", socketHandler.HandleConnection)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
		// No ReadTimeout: it would sever long-lived WebSocket connections.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	app := &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            sessionHub,
		ChatService:    chatService,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}
	log.Info("Application assembled")
	return app, nil
}

// Start launches the hub, the worker, the scheduler and the HTTP server.
func (a *App) Start() {
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go a.AsynqServer.Start()
	a.Log.Info("Worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server listening on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	a.scheduler = asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})

	task, err := tasks.NewActivityPruneTask()
	if err != nil {
		a.Log.Errorf("Failed to create activity prune task: %v", err)
		return
	}
	schedule := "@every 6h"
	entryID, err := a.scheduler.Register(schedule, task, asynq.Queue("low"))
	if err != nil {
		a.Log.Errorf("Could not register periodic activity prune task: %v", err)
	} else {
		a.Log.Infof("Periodic activity prune registered with schedule '%s' (EntryID: %s)", schedule, entryID)
	}

	go func() {
		if err := a.scheduler.Run(); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
		}
	}()
}

// Shutdown stops the application gracefully.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.Hub != nil {
		a.Hub.StopAllSubscriptions()
		a.Hub.Close()
	}
	if a.ChatService != nil {
		a.ChatService.Close()
	}
	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs each request with latency and status.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()
		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
		if allowedOrigin == "" {
			allowedOrigin = "http://localhost:3000"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
