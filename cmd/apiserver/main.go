package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/apiserver/handler"
	"github.com/backmeup/backmeup/internal/apiserver/middleware"
	"github.com/backmeup/backmeup/internal/auth/jwt"
	"github.com/backmeup/backmeup/internal/auth/storage"
	"github.com/backmeup/backmeup/internal/backup"
	"github.com/backmeup/backmeup/internal/common/cnst"
	"github.com/backmeup/backmeup/internal/common/config"
	"github.com/backmeup/backmeup/internal/dbadmin"
	"github.com/backmeup/backmeup/internal/perm"
	"github.com/backmeup/backmeup/pkg/helper"
	"github.com/backmeup/backmeup/pkg/logger"
	"github.com/backmeup/backmeup/pkg/metrics"
	"github.com/backmeup/backmeup/pkg/trace"
	"github.com/backmeup/backmeup/pkg/utils"
	"github.com/backmeup/backmeup/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("backmeup apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "BackMeUp API Server",
		Long:  `BackMeUp API Server manages MySQL databases, backups and user permissions`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "apiserver.yaml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

// gormProvider is implemented by every system store backend.
type gormProvider interface {
	GormDB() *gorm.DB
}

// adminConn returns the gorm handle the server admin layer should use. A
// MySQL-backed system store shares its connection; other backends get a
// dedicated connection to the managed server.
func adminConn(store database.Database, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Type == "mysql" {
		if gp, ok := store.(gormProvider); ok {
			return gp.GormDB(), nil
		}
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port)
	return gorm.Open(gormmysql.Open(dsn), &gorm.Config{})
}

func run() {
	cfg, cfgPath, err := config.LoadConfig(helper.GetCfgPath(configPath))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	lg.Info("starting backmeup apiserver",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath),
		zap.Int("port", cfg.Port))

	if cfg.PID != "" {
		pm := utils.NewPIDManager(cfg.PID)
		if err := pm.WritePID(); err != nil {
			lg.Fatal("failed to write PID file", zap.Error(err))
		}
		defer pm.RemovePID()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracing(ctx, &cfg.Tracing, lg)
		if err != nil {
			lg.Fatal("failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				lg.Warn("tracing shutdown failed", zap.Error(err))
			}
		}()
	}

	// System store
	store, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		lg.Fatal("failed to initialize system store", zap.Error(err))
	}
	defer store.Close()

	if gp, ok := store.(gormProvider); ok {
		adminUser := utils.FirstNonEmpty(os.Getenv("BACKMEUP_ADMIN_USER"), "admin")
		adminPass := utils.FirstNonEmpty(os.Getenv("BACKMEUP_ADMIN_PASSWORD"), "admin")
		if err := database.InitDefaultAdmin(gp.GormDB(), adminUser, adminPass); err != nil {
			lg.Fatal("failed to create default admin", zap.Error(err))
		}
	}

	// Managed MySQL server
	conn, err := adminConn(store, &cfg.Database)
	if err != nil {
		lg.Fatal("failed to connect to MySQL server", zap.Error(err))
	}
	admin := dbadmin.New(conn, lg)
	if err := admin.Ping(ctx); err != nil {
		// The server may come up later; permission checks fail closed and
		// operations report connection errors until it does.
		lg.Warn("MySQL server unreachable at startup", zap.Error(err))
	}

	// Backup inventory and executor
	inv := backup.NewInventory(cfg.Backup.Dir, lg)
	if err := inv.EnsureDir(); err != nil {
		lg.Fatal("failed to create backup directory", zap.Error(err))
	}
	exec := backup.NewExecutor(&cfg.Backup, &cfg.Database, inv, admin, lg)

	detector, err := backup.NewDetector(cfg.Backup.Detection, inv, cfg.Backup.PollInterval, lg)
	if err != nil {
		lg.Fatal("failed to initialize backup detector", zap.Error(err))
	}

	// Auth
	jwtSvc, err := jwt.NewService(cfg.JWT)
	if err != nil {
		lg.Fatal("failed to initialize JWT service", zap.Error(err))
	}
	tokens, err := storage.NewStore(lg, &cfg.TokenStore)
	if err != nil {
		lg.Fatal("failed to initialize token store", zap.Error(err))
	}
	defer tokens.Close()

	checker := perm.NewChecker(store, lg)
	m := metrics.New(cfg.Metrics)

	router := buildRouter(cfg, lg, store, admin, inv, exec, checker, jwtSvc, tokens, m)

	go func() {
		if err := detector.Run(ctx, func() {
			if n, err := inv.Count(); err == nil {
				m.SetArtifactCount(n)
				lg.Info("backup inventory changed", zap.Int("backups", n))
			}
		}); err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("backup detector stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()
	lg.Info("apiserver listening", zap.String("addr", srv.Addr))

	<-ctx.Done()
	lg.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		lg.Error("server shutdown failed", zap.Error(err))
	}
}

func buildRouter(
	cfg *config.APIServerConfig,
	lg *zap.Logger,
	store database.Database,
	admin *dbadmin.Admin,
	inv *backup.Inventory,
	exec *backup.Executor,
	checker *perm.Checker,
	jwtSvc *jwt.Service,
	tokens storage.Store,
	m *metrics.Metrics,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cnst.AppName))
	}
	if cfg.Metrics.Enabled {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})

	authH := handler.NewAuthHandler(store, jwtSvc, tokens, lg)
	usersH := handler.NewUserHandler(store, lg)
	permsH := handler.NewPermissionHandler(store, checker, lg)
	dbH := handler.NewDatabaseHandler(admin, checker, m, lg)
	bakH := handler.NewBackupHandler(inv, exec, checker, m, lg)
	dashH := handler.NewDashboardHandler(store, admin, inv, lg)

	api := r.Group("/api")
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/register", authH.Register)

	authed := api.Group("", middleware.JWTAuthMiddleware(jwtSvc, tokens))
	authed.POST("/auth/logout", authH.Logout)
	authed.POST("/auth/change-password", authH.ChangePassword)

	authed.GET("/dashboard/stats", dashH.Stats)

	authed.GET("/databases", dbH.List)
	authed.POST("/databases", dbH.Create)
	authed.GET("/databases/:database", dbH.Get)
	authed.DELETE("/databases/:database", dbH.Drop)
	authed.GET("/databases/:database/tables", dbH.ListTables)
	authed.POST("/databases/:database/tables", dbH.CreateTable)
	authed.DELETE("/databases/:database/tables/:table", dbH.DropTable)

	authed.GET("/backups", bakH.List)
	authed.POST("/backups", bakH.Create)
	authed.POST("/backups/table", bakH.CreateTable)
	authed.POST("/backups/:filename/restore", bakH.Restore)
	authed.DELETE("/backups/:filename", bakH.Delete)

	adminOnly := authed.Group("", middleware.AdminOnlyMiddleware())
	adminOnly.GET("/users", usersH.List)
	adminOnly.PUT("/users/:username", usersH.Update)
	adminOnly.DELETE("/users/:username", usersH.Delete)
	adminOnly.GET("/users/:username/permissions", permsH.Get)
	adminOnly.PUT("/users/:username/permissions", permsH.Replace)

	return r
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
