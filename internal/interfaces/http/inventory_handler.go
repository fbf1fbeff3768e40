package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
)

// InventoryHandler expone las cuentas de stock y sus movimientos.
type InventoryHandler struct {
	stockUC         *inventory.StockLedgerUseCase
	replenishmentUC *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(stockUC *inventory.StockLedgerUseCase, replenishmentUC *inventory.ReplenishmentUseCase) *InventoryHandler {
	return &InventoryHandler{stockUC: stockUC, replenishmentUC: replenishmentUC}
}

// Create godoc
// @Summary      Crear cuenta de stock
// @Description  Una cuenta por (negocio, producto). El stock inicial queda como movimiento de ajuste.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockAccountRequest  true  "Datos de la cuenta"
// @Success      201   {object}  dto.StockAccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockAccountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	businessID := ScopeBusinessID(c, in.BusinessID)
	out, err := h.stockUC.CreateAccount(c.UserContext(), businessID, GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar cuentas de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "in_stock | low_stock | out_of_stock"
// @Param        product_id   query  string  false  "Producto"
// @Param        business_id  query  string  false  "Negocio (sólo admin)"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.StockAccountListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	out, err := h.stockUC.ListAccounts(c.UserContext(), ScopeBusinessID(c, c.Query("business_id")),
		c.Query("status"), c.Query("product_id"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener cuenta de stock con su historial
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la cuenta"
// @Success      200  {object}  dto.StockAccountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [get]
func (h *InventoryHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.stockUC.GetAccount(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByProduct godoc
// @Summary      Obtener cuenta de stock por producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId    path   string  true   "ID del producto"
// @Param        business_id  query  string  false  "Negocio (requerido para admin)"
// @Success      200  {object}  dto.StockAccountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/product/{productId} [get]
func (h *InventoryHandler) GetByProduct(c *fiber.Ctx) error {
	out, err := h.stockUC.GetAccountByProduct(c.UserContext(), ScopeBusinessID(c, c.Query("business_id")), c.Params("productId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar datos de la cuenta de stock
// @Description  El stock no es editable; sólo cambia registrando movimientos.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la cuenta"
// @Param        body  body  dto.UpdateStockAccountRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.StockAccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [put]
func (h *InventoryHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStockAccountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.stockUC.UpdateAccount(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar cuenta de stock
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID de la cuenta"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [delete]
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.stockUC.DeleteAccount(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  inward, return, transfer_in y adjustment suman; outward, transfer_out y damage restan.
// @Description  No es idempotente: cada llamada agrega un movimiento.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la cuenta"
// @Param        body  body  dto.RecordMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.stockUC.RecordMovement(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RecordMovementByProduct godoc
// @Summary      Registrar movimiento de stock por producto
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId    path   string                      true   "ID del producto"
// @Param        business_id  query  string                      false  "Negocio (requerido para admin)"
// @Param        body         body   dto.RecordMovementRequest  true   "Movimiento"
// @Success      201  {object}  dto.MovementResultResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/product/{productId}/movements [post]
func (h *InventoryHandler) RecordMovementByProduct(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.stockUC.RecordMovementByProduct(c.UserContext(), ScopeBusinessID(c, c.Query("business_id")),
		c.Params("productId"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos de la cuenta
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la cuenta"
// @Param        type    query  string  false  "Tipo de movimiento"
// @Param        from    query  string  false  "Desde (RFC3339)"
// @Param        to      query  string  false  "Hasta (RFC3339)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	from, to, err := dateRangeFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page := pageFromQuery(c)
	out, err := h.stockUC.ListMovements(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id"), repository.MovementFilter{
		Type:   entity.MovementType(c.Query("type")),
		From:   from,
		To:     to,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Cuentas en low_stock u out_of_stock con la cantidad sugerida para volver al nivel ideal.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        business_id  query  string  false  "Negocio (requerido para admin)"
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) ReplenishmentList(c *fiber.Ctx) error {
	out, err := h.replenishmentUC.GenerateReplenishmentList(c.UserContext(), ScopeBusinessID(c, c.Query("business_id")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	return page
}

func dateRangeFromQuery(c *fiber.Ctx) (from, to *time.Time, err error) {
	parse := func(name string) (*time.Time, error) {
		raw := c.Query(name)
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			if t, err = time.Parse(time.DateOnly, raw); err != nil {
				return nil, fmt.Errorf("%w: %s debe ser RFC3339 o AAAA-MM-DD", domain.ErrInvalidInput, name)
			}
		}
		return &t, nil
	}
	if from, err = parse("from"); err != nil {
		return nil, nil, err
	}
	if to, err = parse("to"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
