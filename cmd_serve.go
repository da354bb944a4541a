package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/zweiadr/gw2advisor/advisor"
	apirest "github.com/zweiadr/gw2advisor/api/rest"
	"github.com/zweiadr/gw2advisor/api/sse"
	"github.com/zweiadr/gw2advisor/cache"
	dbadapter "github.com/zweiadr/gw2advisor/db"
	"github.com/zweiadr/gw2advisor/messaging"
	mw "github.com/zweiadr/gw2advisor/middleware"
	"github.com/zweiadr/gw2advisor/model"
	"github.com/zweiadr/gw2advisor/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the advisor web server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func runServe() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// ---- Database (saved API keys) ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("key store initialized")

	// ---- PubSub (progress events) ----
	pubsub, err := cache.NewPubSub(cache.Config{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}

	// ---- Messaging ----
	msg := messaging.New()
	msg.AddListener(messaging.NewZapListener(logger))
	msg.AddListener(messaging.NewPubSubListener(pubsub, sse.ProgressChannel, logger))

	// ---- Advisor ----
	svc := advisor.New(cfg, msg, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Shutdown()
	if cfg.Advisor.ReloadInterval > 0 {
		sched.Every("advice-reload", cfg.Advisor.ReloadInterval, svc.Reload)
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	sseH := sse.NewHandler(pubsub, logger)
	r.GET("/sse", sseH.ServeSSE)

	keysH := apirest.NewKeysHandler(db)
	adviceH := apirest.NewAdviceHandler(svc, db, logger)

	api := r.Group("/api")
	{
		api.GET("/status", adviceH.Status)
		api.POST("/load", adviceH.Load)
		api.POST("/abort", adviceH.Abort)

		api.GET("/keys", keysH.List)
		api.POST("/keys", keysH.Create)
		api.PATCH("/keys/:id", keysH.Update)
		api.DELETE("/keys/:id", keysH.Delete)

		api.GET("/advice", adviceH.Rules)
		api.GET("/advice/:rule", adviceH.Advice)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
