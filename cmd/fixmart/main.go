package main

import (
	"context"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fixmart/fixmart/config"
	"github.com/fixmart/fixmart/internal/auth"
	"github.com/fixmart/fixmart/internal/gateway"
	handler "github.com/fixmart/fixmart/internal/handler/http"
	"github.com/fixmart/fixmart/internal/logger"
	"github.com/fixmart/fixmart/internal/middleware"
	"github.com/fixmart/fixmart/internal/repository"
	"github.com/fixmart/fixmart/internal/repository/postgres"
	"github.com/fixmart/fixmart/internal/service"
	"github.com/fixmart/fixmart/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const authTokenKey = "2b1c8d3f4a5e6078991a2b3c4d5e6f70"

func main() {
	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Log.Fatal("Error migrating database", zap.Error(err))
	}

	key := authTokenKey
	if keyEnv := os.Getenv("AUTH_TOKEN_KEY"); keyEnv != "" {
		key = keyEnv
	}
	tokenKey, err := hex.DecodeString(key)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// leader lock for the reconciler, optional
	var rs *redsync.Redsync
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		rs = redsync.New(goredis.NewPool(rdb))
	}

	gw := gateway.NewClient(cfg.GatewayAddr, cfg.GatewaySecret)

	// dependency injection
	// user
	userRepo := repository.NewUserRepository(db)
	userService := service.NewUserService(userRepo, token)
	userHandler := handler.NewUserHandler(userService)

	// payment
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, gw, cfg)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// order
	orderService := service.NewOrderService(orderRepo, paymentService)
	orderHandler := handler.NewOrderHandler(orderService)

	reconciler := worker.NewReconciler(paymentService, rs, cfg.SweepInterval)
	if err := reconciler.Start(ctx); err != nil {
		logger.Log.Fatal("Error starting reconciler", zap.Error(err))
	}
	defer reconciler.Stop()

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger.Log))

	router.Post("/api/user/register", userHandler.RegisterUser())
	router.Post("/api/user/login", userHandler.LoginUser())
	router.Post("/api/payments/notify", paymentHandler.GatewayNotify())
	router.Handle("/metrics", promhttp.Handler())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(handler.AuthMiddleware(token))
		group.Post("/api/orders", orderHandler.CreateOrder())
		group.Get("/api/orders", orderHandler.ListOrders())
		group.Get("/api/orders/open", orderHandler.ListOpenOrders())
		group.Get("/api/orders/{id}", orderHandler.GetOrder())
		group.Post("/api/orders/{id}/claim", orderHandler.ClaimOrder())
		group.Post("/api/orders/{id}/confirm", orderHandler.ConfirmOrder())
		group.Post("/api/orders/{id}/update", orderHandler.UpdateOrder())
		group.Post("/api/orders/{id}/confirm-update", orderHandler.ConfirmUpdate())
		group.Post("/api/orders/{id}/complete", orderHandler.CompleteOrder())
		group.Post("/api/orders/{id}/review", orderHandler.ReviewOrder())
		group.Post("/api/orders/{id}/cancel", orderHandler.CancelOrder())
		group.Post("/api/orders/{id}/cancel/initiate", orderHandler.InitiateCancel())
		group.Post("/api/orders/{id}/cancel/confirm", orderHandler.ConfirmCancel())
		group.Post("/api/orders/{id}/cancel/withdraw", orderHandler.WithdrawCancel())
		group.Post("/api/payments", paymentHandler.CreatePayment())
		group.Get("/api/payments/{tradeNo}", paymentHandler.QueryPayment())
		group.Post("/api/payments/{tradeNo}/confirm-test", paymentHandler.ConfirmTestPayment())
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Error shutting down server", zap.Error(err))
		}
	}()

	logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatal("Error starting server", zap.Error(err))
	}
}
