package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockLedgerUC   *inventory.StockLedgerUseCase
	ReplenishmentUC *inventory.ReplenishmentUseCase
	PartyLedgerUC   *ledger.PartyLedgerUseCase
	JWTSecret       string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Inventario (cuentas de stock)
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.StockLedgerUC, deps.ReplenishmentUC)
	inv.Get("/", inventoryHandler.List)
	inv.Post("/", inventoryHandler.Create)
	inv.Get("/replenishment-list", inventoryHandler.ReplenishmentList)
	inv.Get("/product/:productId", inventoryHandler.GetByProduct)
	inv.Post("/product/:productId/movements", inventoryHandler.RecordMovementByProduct)
	inv.Get("/:id", inventoryHandler.GetByID)
	inv.Put("/:id", inventoryHandler.Update)
	inv.Delete("/:id", RequireRole(RoleAdmin, RoleOwner), inventoryHandler.Delete)
	inv.Get("/:id/movements", inventoryHandler.ListMovements)
	inv.Post("/:id/movements", inventoryHandler.RecordMovement)

	// Libros de contrapartes
	ledgers := api.Group("/ledgers")
	ledgerHandler := NewLedgerHandler(deps.PartyLedgerUC)
	ledgers.Get("/", ledgerHandler.List)
	ledgers.Post("/", ledgerHandler.Create)
	ledgers.Get("/party/:partyId", ledgerHandler.GetByParty)
	ledgers.Post("/party/:partyId/transactions", ledgerHandler.RecordTransactionByParty)
	ledgers.Get("/:id", ledgerHandler.GetByID)
	ledgers.Put("/:id", ledgerHandler.Update)
	ledgers.Delete("/:id", RequireRole(RoleAdmin, RoleOwner), ledgerHandler.Delete)
	ledgers.Get("/:id/transactions", ledgerHandler.ListTransactions)
	ledgers.Post("/:id/transactions", ledgerHandler.RecordTransaction)
}
