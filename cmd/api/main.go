package main

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/pkg/database"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/pkg/logger"
	"Inkwell/internal/pkg/minio"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inkwell",
		Short: "Inkwell blog dashboard backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 加载配置
			if err := config.LoadConfig(); err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			// 初始化日志
			logger.InitLogger(config.Cfg.Log)
			security.Init(config.Cfg.JWT)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error("Fatal error", "err", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg := config.Cfg.DB
			db, err := database.NewGormDB(&dbCfg)
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}

// tokenCmd 本地调试用，签发一个 Token
func tokenCmd() *cobra.Command {
	var (
		userID string
		roles  []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := security.GenerateToken(userID, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"AUTHOR"}, "roles")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := config.Cfg

	// 数据库连接
	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	if dbCfg.AutoMigrate {
		if err = database.Migrate(db); err != nil {
			return err
		}
	}

	infra := wire.Infra{DB: db}

	// Redis 连接，未配置时会话保存在进程内
	if cfg.Redis.Addr != "" {
		rdb, err := redis.InitRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to create redis connection: %w", err)
		}
		defer func() { _ = redis.Close() }()
		infra.Redis = rdb
	} else {
		log.Warn("redis not configured, draft sessions are kept in memory")
	}

	// MinIO 连接
	if cfg.MinIO.Endpoint != "" {
		storage, err := minio.Init(parent, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("failed to initialize MinIO: %w", err)
		}
		infra.Storage = storage
	} else {
		log.Warn("minio not configured, image upload disabled")
	}

	// 帖子事件
	publisher, err := kafka.NewPostEventPublisher(cfg.Kafka)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()
	infra.Publisher = publisher

	// 依赖注入
	app, err := wire.BuildApplication(infra, cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// HTTP 服务器
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: app.Router,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server shutdown failed", "err", err)
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("App exited successfully.")
	return nil
}
