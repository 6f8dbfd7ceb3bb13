package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mall_dev_v1_202609/internal/config"
	"mall_dev_v1_202609/internal/controller"
	"mall_dev_v1_202609/internal/middleware"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
	"mall_dev_v1_202609/internal/router"
	"mall_dev_v1_202609/internal/service"
	"mall_dev_v1_202609/internal/task"
	"mall_dev_v1_202609/pkg/cache"
	"mall_dev_v1_202609/pkg/database"
	"mall_dev_v1_202609/pkg/logger"
	"mall_dev_v1_202609/pkg/mailer"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志
	zlog, err := logger.Init(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()

	gin.SetMode(cfg.Server.Mode)

	// 3. 初始化数据库
	db := initDatabase(cfg)

	// 4. 初始化依赖
	deps := initDependencies(cfg, db, zlog)

	// 5. 启动定时任务
	initTasks(deps)
	defer deps.Cleanup.Stop()

	// 6. 初始化路由
	r := router.SetupRouter(deps.Controllers, deps.Repos.User, &router.ThrottleConfig{
		Login:     cfg.Throttle.Login,
		VerifyOTP: cfg.Throttle.VerifyOTP,
		ResendOTP: cfg.Throttle.ResendOTP,
	})

	// 7. 启动服务
	startServer(r, cfg, zlog)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	Cleanup     *task.CleanupTask
	Logger      *zap.Logger
}

// Repositories 仓库集合
type Repositories struct {
	User    repository.UserRepository
	Product repository.ProductRepository
	Cart    repository.CartRepository
	Token   repository.RevokedTokenRepository
}

// Services 服务集合
type Services struct {
	OTP     *service.OTPService
	Account *service.AccountService
	Auth    *service.AuthService
	Product *service.ProductService
	Cart    *service.CartService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(
		cfg.Database.DSN(),
		// Account
		&model.User{},
		// Catalog
		&model.Product{},
		// Cart
		&model.Cart{}, &model.CartItem{},
		// Auth
		&model.RevokedToken{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, zlog *zap.Logger) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		User:    repository.NewUserRepository(db),
		Product: repository.NewProductRepository(db),
		Cart:    repository.NewCartRepository(db),
		Token:   repository.NewRevokedTokenRepository(db),
	}

	// -------- JWT 配置 --------
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessExpiry,
		RefreshTokenTTL: cfg.JWT.RefreshExpiry,
		Issuer:          "mall-backend",
	})

	// -------- Redis：缓存 + 审批通知，未配置时降级为空实现 --------
	var (
		redisClient  *redis.Client
		productCache service.Cache    = cache.NopCache{}
		notifier     service.Notifier = service.NopNotifier{}
	)
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zlog.Warn("Redis 不可用，缓存与通知已降级", zap.Error(err))
		} else {
			redisClient = client
			productCache = cache.NewRedisCache(client)
			notifier = service.NewRedisNotifier(client, zlog)
		}
	}

	// -------- 邮件 --------
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)

	// -------- 业务服务 --------
	services := &Services{}
	services.OTP = service.NewOTPService(smtpMailer, cfg.SMTP.From)
	services.Account = service.NewAccountService(
		repos.User, services.OTP, notifier, zlog,
		cfg.Server.BaseURL+"/set-password",
	)
	services.Auth = service.NewAuthService(repos.User, repos.Token, zlog)
	services.Product = service.NewProductService(repos.Product, productCache, zlog)
	services.Cart = service.NewCartService(repos.Cart, repos.Product, zlog)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:    controller.NewAuthController(services.Account, services.Auth),
		Admin:   controller.NewAdminController(services.Account),
		Product: controller.NewProductController(services.Product),
		Cart:    controller.NewCartController(services.Cart),
	}

	return &Dependencies{
		DB:          db,
		Redis:       redisClient,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		Cleanup:     task.NewCleanupTask(repos.Token, repos.User, zlog),
		Logger:      zlog,
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	if err := deps.Cleanup.Start(); err != nil {
		deps.Logger.Fatal("无法启动清理任务", zap.Error(err))
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, cfg *config.Config, zlog *zap.Logger) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	// 异步启动服务
	go func() {
		zlog.Info("服务启动", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("服务强制关闭", zap.Error(err))
	}

	zlog.Info("服务已退出")
}
