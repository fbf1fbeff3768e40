package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/application/ledger"
	"github.com/jhoicas/reco-api/internal/application/ports"
	"github.com/jhoicas/reco-api/internal/infrastructure/lock"
	"github.com/jhoicas/reco-api/internal/infrastructure/metrics"
	"github.com/jhoicas/reco-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/reco-api/internal/interfaces/http"
	"github.com/jhoicas/reco-api/pkg/config"
	"github.com/jhoicas/reco-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store.Driver).Msg("conexión al almacenamiento")
	}
	defer store.Close()

	var locker ports.AccountLocker = lock.NewKeyedMutex(cfg.Lock.Wait())
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Lock, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("bloqueo distribuido con Redis")
	}

	var (
		collector     *metrics.Collector
		ledgerMetrics ports.LedgerMetrics = ports.NopMetrics{}
		observer      httpRouter.RequestObserver
	)
	if cfg.Metrics.Enabled {
		collector = metrics.New()
		ledgerMetrics = collector
		observer = collector
	}

	stockUC := inventory.NewStockLedgerUseCase(store.StockTx, store.StockRepo, locker, ledgerMetrics, log)
	replenishmentUC := inventory.NewReplenishmentUseCase(store.StockRepo)
	partyLedgerUC := ledger.NewPartyLedgerUseCase(store.LedgerTx, store.LedgerRepo, locker, ledgerMetrics, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Named("http"), observer))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "Reco API",
		}))
	} else {
		log.Warn().Str("file", cfg.App.SwaggerFile).Msg("documento swagger no encontrado, /docs deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})
	if collector != nil {
		app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockLedgerUC:   stockUC,
		ReplenishmentUC: replenishmentUC,
		PartyLedgerUC:   partyLedgerUC,
		JWTSecret:       cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
