package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goredis "github.com/redis/go-redis/v9"

	appcatalog "github.com/cafetero/cafeteria-api/internal/application/catalog"
	"github.com/cafetero/cafeteria-api/internal/application/costing"
	"github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/application/purchasing"
	"github.com/cafetero/cafeteria-api/internal/application/recipes"
	"github.com/cafetero/cafeteria-api/internal/application/salesync"
	"github.com/cafetero/cafeteria-api/internal/domain/matching"
	infrapdf "github.com/cafetero/cafeteria-api/internal/infrastructure/pdf"
	"github.com/cafetero/cafeteria-api/internal/infrastructure/pos"
	"github.com/cafetero/cafeteria-api/internal/infrastructure/postgres"
	infraredis "github.com/cafetero/cafeteria-api/internal/infrastructure/redis"
	httpRouter "github.com/cafetero/cafeteria-api/internal/interfaces/http"
	"github.com/cafetero/cafeteria-api/pkg/config"
	"github.com/cafetero/cafeteria-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewInventoryItemRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	salesRepo := postgres.NewSalesRepository(pool)
	syncRunRepo := postgres.NewSyncRunRepository(pool)
	invoiceRepo := postgres.NewSupplierInvoiceRepository(pool)
	orderRepo := postgres.NewPurchaseOrderRepository(pool)
	recipeRepo := postgres.NewRecipeRepository(pool)
	periodRepo := postgres.NewPeriodRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := inventory.NewLedgerUseCase(txRunner)

	// Sin credenciales del POS el cliente queda nil: los casos de uso que lo
	// exigen fallan con ErrConfiguration en vez de llamar a un endpoint vacío.
	var syncPOS salesync.POSClient
	var catalogPOS appcatalog.POSCatalogClient
	if cfg.POS.BaseURL != "" && cfg.POS.Token != "" {
		posClient := pos.NewClient(cfg.POS.BaseURL, cfg.POS.Token, cfg.POS.LocationID, cfg.POS.Timeout(), log)
		syncPOS = posClient
		catalogPOS = posClient
	} else {
		log.Warn().Msg("credenciales del POS ausentes; sync y refresh de catálogo deshabilitados")
	}
	resolver := appcatalog.NewResolver(itemRepo, catalogRepo, catalogPOS,
		time.Duration(cfg.Sync.CatalogTTLMin)*time.Minute)

	// Lock de corridas: distribuido sobre Redis si hay Addr; en proceso si no
	// (despliegues de una sola réplica).
	var locker salesync.RunLocker
	if cfg.Redis.Addr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		locker = infraredis.NewRunLocker(redisClient, log)
	} else {
		locker = salesync.NewMutexLocker()
	}

	syncCfg := salesync.DefaultConfig()
	if cfg.Sync.OverlapSeconds > 0 {
		syncCfg.Overlap = time.Duration(cfg.Sync.OverlapSeconds) * time.Second
	}
	if cfg.Sync.LockTTLSeconds > 0 {
		syncCfg.LockTTL = time.Duration(cfg.Sync.LockTTLSeconds) * time.Second
	}
	syncUC := salesync.NewUseCase(syncRunRepo, salesRepo, resolver, ledgerUC, syncPOS, locker, log, syncCfg)

	fuzzy := matching.TokenFuzzy{}
	fallback := matching.EditDistance{}
	purchasingUC := purchasing.NewUseCase(invoiceRepo, orderRepo, itemRepo, ledgerUC, fuzzy, fallback, log)

	recipesUC := recipes.NewUseCase(recipeRepo, catalogRepo)
	applier := recipes.NewApplier(salesRepo, catalogRepo, recipesUC, ledgerUC)

	// PDF: representación del reporte de cierre de periodo
	pdfGenerator := infrapdf.NewMarotoReportGenerator()
	costingUC := costing.NewUseCase(periodRepo, reportRepo, txRunner, pdfGenerator, cfg.App.Currency, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name,
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:       ledgerUC,
		Items:        itemRepo,
		Movements:    movementRepo,
		SyncUC:       syncUC,
		CatalogRes:   resolver,
		PurchasingUC: purchasingUC,
		RecipesUC:    recipesUC,
		Applier:      applier,
		CostingUC:    costingUC,
		JWTSecret:    cfg.JWT.Secret,
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
