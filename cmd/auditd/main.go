package main // Entry point of the report audit daemon

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cstrack/cstrack-client/internal/config"
	"github.com/cstrack/cstrack-client/internal/database"
	"github.com/cstrack/cstrack-client/internal/handler"
	"github.com/cstrack/cstrack-client/internal/queue"
	"github.com/cstrack/cstrack-client/internal/repository"
	"github.com/cstrack/cstrack-client/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}
	cfg := config.LoadAudit()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("app", "auditd", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	repo := repository.NewReportAuditRepo(db)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	consumer := queue.NewConsumer(cfg.AMQPURL, repo, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", "err", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, db)
	router.RegisterAudit(e, handler.NewAuditHandler(repo), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
