package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/application/ledger"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
)

// LedgerHandler expone los libros de contrapartes (compradores, proveedores, etc.).
type LedgerHandler struct {
	uc *ledger.PartyLedgerUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.PartyLedgerUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// Create godoc
// @Summary      Crear libro de contraparte
// @Tags         ledgers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartyLedgerRequest  true  "Datos del libro"
// @Success      201   {object}  dto.PartyLedgerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledgers [post]
func (h *LedgerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePartyLedgerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateLedger(c.UserContext(), ScopeBusinessID(c, in.BusinessID), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar libros de contrapartes
// @Description  Sin status se excluyen los libros inactivos.
// @Tags         ledgers
// @Security     Bearer
// @Produce      json
// @Param        party_type   query  string  false  "buyer | seller | customer | supplier | service_provider"
// @Param        status       query  string  false  "active | inactive | blocked"
// @Param        business_id  query  string  false  "Negocio (sólo admin)"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.PartyLedgerListResponse
// @Router       /api/ledgers [get]
func (h *LedgerHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListLedgers(c.UserContext(), ScopeBusinessID(c, c.Query("business_id")),
		c.Query("party_type"), c.Query("status"), pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener libro con sus asientos
// @Tags         ledgers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del libro"
// @Success      200  {object}  dto.PartyLedgerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledgers/{id} [get]
func (h *LedgerHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetLedger(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByParty godoc
// @Summary      Obtener libro por contraparte
// @Tags         ledgers
// @Security     Bearer
// @Produce      json
// @Param        partyId      path   string  true   "ID de la contraparte"
// @Param        business_id  query  string  false  "Negocio (requerido para admin)"
// @Success      200  {object}  dto.PartyLedgerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledgers/party/{partyId} [get]
func (h *LedgerHandler) GetByParty(c *fiber.Ctx) error {
	out, err := h.uc.GetLedgerByParty(c.UserContext(), ScopeBusinessID(c, c.Query("business_id")), c.Params("partyId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar libro
// @Description  El saldo inicial sólo se puede cambiar mientras el libro no tenga asientos.
// @Tags         ledgers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID del libro"
// @Param        body  body  dto.UpdatePartyLedgerRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.PartyLedgerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/ledgers/{id} [put]
func (h *LedgerHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePartyLedgerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateLedger(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Desactivar libro
// @Description  Baja lógica: el libro pasa a inactive y conserva su historial.
// @Tags         ledgers
// @Security     Bearer
// @Param        id   path  string  true  "ID del libro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledgers/{id} [delete]
func (h *LedgerHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteLedger(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordTransaction godoc
// @Summary      Registrar asiento
// @Description  saldo nuevo = saldo anterior + débito - crédito. No es idempotente.
// @Tags         ledgers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID del libro"
// @Param        body  body  dto.RecordTransactionRequest  true  "Asiento"
// @Success      201   {object}  dto.TransactionResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledgers/{id}/transactions [post]
func (h *LedgerHandler) RecordTransaction(c *fiber.Ctx) error {
	var in dto.RecordTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.RecordTransaction(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RecordTransactionByParty godoc
// @Summary      Registrar asiento por contraparte
// @Tags         ledgers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        partyId      path   string                         true   "ID de la contraparte"
// @Param        business_id  query  string                         false  "Negocio (requerido para admin)"
// @Param        body         body   dto.RecordTransactionRequest  true   "Asiento"
// @Success      201  {object}  dto.TransactionResultResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledgers/party/{partyId}/transactions [post]
func (h *LedgerHandler) RecordTransactionByParty(c *fiber.Ctx) error {
	var in dto.RecordTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.RecordTransactionByParty(c.UserContext(), ScopeBusinessID(c, c.Query("business_id")),
		c.Params("partyId"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListTransactions godoc
// @Summary      Historial de asientos del libro
// @Tags         ledgers
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del libro"
// @Param        type    query  string  false  "Tipo de asiento"
// @Param        from    query  string  false  "Desde (RFC3339)"
// @Param        to      query  string  false  "Hasta (RFC3339)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.TransactionListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledgers/{id}/transactions [get]
func (h *LedgerHandler) ListTransactions(c *fiber.Ctx) error {
	from, to, err := dateRangeFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page := pageFromQuery(c)
	out, err := h.uc.ListTransactions(c.UserContext(), ScopeBusinessID(c, ""), c.Params("id"), repository.TransactionFilter{
		Type:   entity.TransactionType(c.Query("type")),
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
