package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cafetero/cafeteria-api/internal/application/catalog"
	"github.com/cafetero/cafeteria-api/internal/application/costing"
	"github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/application/purchasing"
	"github.com/cafetero/cafeteria-api/internal/application/recipes"
	"github.com/cafetero/cafeteria-api/internal/application/salesync"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger       *inventory.LedgerUseCase
	Items        repository.InventoryItemRepository
	Movements    repository.StockMovementRepository
	SyncUC       *salesync.UseCase
	CatalogRes   *catalog.Resolver
	PurchasingUC *purchasing.UseCase
	RecipesUC    *recipes.UseCase
	Applier      *recipes.Applier
	CostingUC    *costing.UseCase
	JWTSecret    string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token; los
// tokens se emiten fuera de banda (no hay login en esta API).
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Inventario (ledger)
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Items, deps.Movements)
	inv := api.Group("/inventory")
	inv.Post("/movements", inventoryHandler.RegisterMovement)
	inv.Get("/items", inventoryHandler.ListItems)
	inv.Get("/items/:id/movements", inventoryHandler.ListMovements)

	// Sincronización de ventas
	syncHandler := NewSyncHandler(deps.SyncUC)
	sync := api.Group("/sync")
	sync.Post("/sales", syncHandler.Run)
	sync.Get("/runs", syncHandler.ListRuns)

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.CatalogRes)
	cat := api.Group("/catalog")
	cat.Post("/refresh", catalogHandler.Refresh)
	cat.Delete("/cache", catalogHandler.InvalidateCache)

	// Compras: facturas, matching y órdenes
	purchasingHandler := NewPurchasingHandler(deps.PurchasingUC)
	invoices := api.Group("/invoices")
	invoices.Post("/", purchasingHandler.CreateInvoice)
	invoices.Get("/:id", purchasingHandler.GetInvoice)
	invoices.Get("/:id/match-suggestions", purchasingHandler.SuggestMatches)
	invoices.Post("/:id/items/:itemId/match", purchasingHandler.ApplyMatch)
	invoices.Post("/:id/match-order", purchasingHandler.MatchOrders)
	invoices.Get("/:id/matches", purchasingHandler.ListOrderMatches)
	invoices.Post("/:id/confirm", purchasingHandler.ConfirmInvoice)
	api.Post("/purchase-orders", purchasingHandler.CreateOrder)

	// Recetas y consumo
	recipeHandler := NewRecipeHandler(deps.RecipesUC, deps.Applier)
	api.Post("/products/:id/recipes", recipeHandler.CreateRecipe)
	api.Post("/sellables/:id/overrides", recipeHandler.CreateOverride)
	api.Get("/sellables/:id/consumption", recipeHandler.ResolveConsumption)
	api.Post("/sales/lines/:id/apply-consumption", recipeHandler.ApplyConsumption)

	// Periodos contables y costeo
	periodHandler := NewPeriodHandler(deps.CostingUC)
	periods := api.Group("/periods")
	periods.Post("/", periodHandler.Create)
	periods.Get("/", periodHandler.List)
	periods.Post("/:id/close", periodHandler.Close)
	periods.Get("/:id/report", periodHandler.GetReport)
	periods.Get("/:id/report/pdf", periodHandler.GetReportPDF)
}
