package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"papaya/internal/ai"
	"papaya/internal/ai/component"
	"papaya/internal/config"
	"papaya/internal/handler"
	authHandler "papaya/internal/handler/auth"
	movieHandler "papaya/internal/handler/movie"
	resourceHandler "papaya/internal/handler/resource"
	"papaya/internal/pkg/cache"
	"papaya/internal/pkg/ffmpeg"
	"papaya/internal/pkg/jwt"
	"papaya/internal/pkg/kling"
	"papaya/internal/pkg/mongodb"
	"papaya/internal/pkg/storagefactory"
	authRepo "papaya/internal/repository/auth"
	resourceRepo "papaya/internal/repository/resource"
	"papaya/internal/server/middleware"
	"papaya/internal/service"
	movieservice "papaya/internal/service/movie"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 初始化 MongoDB (可选)
	var mongoClient *mongodb.Client
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			// 创建索引
			if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		mongo:  mongoClient,
		redis:  redisCache,
	}

	// 设置路由
	if err := srv.setupRoutes(); err != nil {
		return nil, err
	}

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() error {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.mongo == nil {
		log.Warn().Msg("MongoDB not configured, API endpoints disabled")
		return nil
	}
	db := s.mongo.Database()

	// JWT 参数（没有配置时用默认值）
	jwtSecret := s.cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "default-secret-key-change-in-production"
		log.Warn().Msg("JWT secret not configured, using default (NOT SECURE for production)")
	}
	accessTokenExpiry := s.cfg.Auth.AccessTokenExpiry
	if accessTokenExpiry == 0 {
		accessTokenExpiry = 24 * time.Hour
	}
	refreshTokenExpiry := s.cfg.Auth.RefreshTokenExpiry
	if refreshTokenExpiry == 0 {
		refreshTokenExpiry = 7 * 24 * time.Hour
	}

	authSvc := service.NewAuthService(
		authRepo.NewUserRepo(db),
		authRepo.NewRefreshTokenRepo(db),
		jwtSecret,
		accessTokenExpiry,
		refreshTokenExpiry,
	)
	authHdl := authHandler.NewHandler(authSvc)
	authRequired := middleware.Auth(jwt.NewJWT(jwtSecret, accessTokenExpiry))

	// API v1
	v1 := s.engine.Group("/api/v1")

	// 认证接口（公开）
	v1.POST("/auth/register", authHdl.Register)
	v1.POST("/auth/login", authHdl.Login)
	v1.POST("/auth/refresh", authHdl.Refresh)

	authed := v1.Group("")
	authed.Use(authRequired)
	authed.POST("/auth/logout", authHdl.Logout)
	authed.GET("/auth/me", authHdl.GetMe)

	// 存储与资源接口（参考图、视频产物的上传下载）
	store, err := storagefactory.NewStorage(context.Background(), &s.cfg.Storage)
	if err != nil {
		return err
	}
	resourceSvc := service.NewResourceService(resourceRepo.NewResourceRepo(db), store)
	resourceHdl := resourceHandler.NewHandler(resourceSvc)

	authed.POST("/resources/upload", resourceHdl.UploadFile)
	authed.GET("/resources", resourceHdl.ListResources)
	authed.GET("/resources/:resource_id", resourceHdl.GetResource)
	authed.GET("/resources/:resource_id/download", resourceHdl.DownloadFile)
	authed.GET("/resources/:resource_id/url", resourceHdl.GetDownloadURL)

	// AI 剧本分析（可选：没有 API key 时相关接口在调用时报错）
	var analyzer movieservice.ScriptAnalyzer
	if s.cfg.AI.APIKey != "" {
		chatModel, err := component.NewChatModel(context.Background(), &s.cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize chat model, script analysis disabled")
		} else {
			aiClient, err := ai.NewClient(context.Background(), &s.cfg.AI, chatModel)
			if err != nil {
				return err
			}
			analyzer = aiClient
			log.Info().Str("provider", s.cfg.AI.Provider).Str("model", s.cfg.AI.Model).Msg("initialized script analyzer")
		}
	}

	// 视频生成服务商
	videoClient, err := kling.NewClient(&kling.Config{
		AccessKey: s.cfg.Kling.AccessKey,
		SecretKey: s.cfg.Kling.SecretKey,
		BaseURL:   s.cfg.Kling.BaseURL,
		Model:     s.cfg.Kling.Model,
	})
	if err != nil {
		return err
	}

	// 注意不能直接传 s.redis：nil 指针装进接口后不再等于 nil
	var flagCache movieservice.FlagCache
	if s.redis != nil {
		flagCache = s.redis
	}

	movieSvc, err := movieservice.NewMovieService(
		db,
		analyzer,
		videoClient,
		ffmpeg.NewClient(),
		store,
		flagCache,
		s.cfg.Credits,
	)
	if err != nil {
		return err
	}
	movieHdl := movieHandler.NewHandler(movieSvc)

	// 影片接口
	authed.POST("/movies", movieHdl.CreateMovie)
	authed.GET("/movies", movieHdl.ListMovies)
	authed.GET("/movies/:movie_id", movieHdl.GetMovie)
	authed.DELETE("/movies/:movie_id", movieHdl.DeleteMovie)

	authed.POST("/movies/:movie_id/characters", movieHdl.AddCharacter)
	authed.GET("/movies/:movie_id/characters", movieHdl.GetCharacters)
	authed.POST("/movies/:movie_id/scene-packs", movieHdl.CreateScenePack)
	authed.GET("/movies/:movie_id/scene-packs", movieHdl.GetScenePacks)

	authed.POST("/movies/:movie_id/analyze", movieHdl.AnalyzeScript)
	authed.GET("/movies/:movie_id/duration-estimate", movieHdl.EstimateDuration)
	authed.POST("/movies/:movie_id/plan", movieHdl.PlanShots)
	authed.GET("/movies/:movie_id/shots", movieHdl.GetShots)

	authed.POST("/movies/:movie_id/generate", movieHdl.GenerateMovie)
	authed.POST("/movies/:movie_id/pause", movieHdl.PauseGeneration)
	authed.POST("/movies/:movie_id/resume", movieHdl.ResumeGeneration)

	authed.POST("/shots/:shot_id/generate", movieHdl.GenerateShot)
	authed.POST("/shots/:shot_id/cancel", movieHdl.CancelShot)
	authed.GET("/shots/:shot_id/takes", movieHdl.GetTakes)
	authed.PUT("/shots/:shot_id/hero", movieHdl.SelectHeroTake)

	return nil
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		// 关闭连接
		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
