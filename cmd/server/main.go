package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-gin-gift-admin/config"
	"go-gin-gift-admin/internal/cache"
	"go-gin-gift-admin/internal/database"
	"go-gin-gift-admin/internal/export"
	"go-gin-gift-admin/internal/handler"
	"go-gin-gift-admin/internal/repository"
	"go-gin-gift-admin/internal/service"
	"go-gin-gift-admin/pkg/clock"
	"go-gin-gift-admin/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	defer logger.Sync()
	log := logger.WithComponent("server")

	cfg := config.LoadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.InitSchema(ctx, pool); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	formatter, err := export.NewFormatter(cfg.Export)
	if err != nil {
		log.Fatal("Invalid export config", zap.Error(err))
	}

	clk := clock.Real()
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	giftRepo := repository.NewGiftRepository(pool)

	ticketService := service.NewTicketService(pool, ticketRepo, userRepo, clk)
	transactionService := service.NewTransactionService(
		transactionRepo,
		cache.NewRedisExportLock(rdb, cfg.Export.LockTTL),
		formatter,
		clk,
	)
	giftService := service.NewGiftService(giftRepo)

	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	handler.NewTicketHandler(ticketService).RegisterRoutes(router)
	handler.NewTransactionHandler(transactionService).RegisterRoutes(router)
	handler.NewGiftHandler(giftService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
