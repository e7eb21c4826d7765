package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"identity-service/internal/config"
	apphttp "identity-service/internal/http"
	"identity-service/internal/password"
	"identity-service/internal/repository"
	"identity-service/internal/repository/memory"
	"identity-service/internal/repository/sqlite"
	"identity-service/internal/service"
	"identity-service/internal/token"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var accountRepo repository.AccountRepository
	if cfg.Database.Path != "" {
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatalf("open database: %v", err)
		}
		defer db.Close()
		accountRepo = sqlite.NewAccountRepository(db)
		logger.Infof("using sqlite store at %s", cfg.Database.Path)
	} else {
		accountRepo = memory.NewAccountRepository()
		logger.Info("using in-memory store")
	}

	if err := accountRepo.Init(ctx); err != nil {
		logger.Fatalf("init account repository: %v", err)
	}

	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	issuer := token.NewIssuer(
		[]byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)
	accountService := service.NewAccountService(accountRepo, hasher, issuer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(accountService, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
