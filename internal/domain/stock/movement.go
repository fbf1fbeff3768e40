package stock

import (
	"fmt"
	"time"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MovementRequest datos de un movimiento a registrar sobre una cuenta.
type MovementRequest struct {
	Type            entity.MovementType
	Quantity        decimal.Decimal
	Rate            *decimal.Decimal
	ReferenceType   entity.ReferenceType
	ReferenceID     string
	ReferenceNumber string
	Remarks         string
	Date            *time.Time // nil = now
	CreatedBy       string
}

// Validate verifica tipo, cantidad positiva, tarifa no negativa y referencia conocida.
func (r MovementRequest) Validate() error {
	if _, err := Sign(r.Type); err != nil {
		return err
	}
	if !r.Quantity.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if r.Rate != nil && r.Rate.IsNegative() {
		return fmt.Errorf("%w: la tarifa no puede ser negativa", domain.ErrInvalidInput)
	}
	switch r.ReferenceType {
	case "", entity.ReferencePurchase, entity.ReferenceSale, entity.ReferenceLot,
		entity.ReferenceInvoice, entity.ReferenceManual:
	default:
		return fmt.Errorf("%w: tipo de referencia %q no soportado", domain.ErrInvalidInput, r.ReferenceType)
	}
	return nil
}

// ApplyMovement agrega el movimiento al final de la cuenta y sincroniza los campos derivados
// (CurrentStock, Status, AverageRate, TotalValue, última compra/venta). Muta acc; el caller
// persiste el resultado completo en una sola escritura.
// No es idempotente: dos llamadas con la misma entrada generan dos movimientos.
func ApplyMovement(acc *entity.StockAccount, req MovementRequest, now time.Time) (*entity.StockMovement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sign, _ := Sign(req.Type)

	date := now
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}
	qty := req.Quantity.Abs()
	previous := acc.CurrentStock
	newStock := previous.Add(qty.Mul(decimal.NewFromInt(sign)))

	valueRate := acc.AverageRate
	var rate *decimal.Decimal
	if req.Rate != nil {
		r := *req.Rate
		rate = &r
		valueRate = r
	}

	acc.Movements = append(acc.Movements, entity.StockMovement{
		Seq:             len(acc.Movements) + 1,
		Date:            date,
		Type:            req.Type,
		ReferenceType:   req.ReferenceType,
		ReferenceID:     req.ReferenceID,
		ReferenceNumber: req.ReferenceNumber,
		Quantity:        qty,
		PreviousStock:   previous,
		NewStock:        newStock,
		Rate:            rate,
		TotalValue:      qty.Mul(valueRate),
		Remarks:         req.Remarks,
		CreatedBy:       req.CreatedBy,
		CreatedAt:       now,
	})
	acc.CurrentStock = newStock

	switch req.Type {
	case entity.MovementInward:
		d := date
		acc.LastPurchaseDate = &d
		acc.LastPurchaseRate = rate
		if rate != nil {
			acc.AverageRate = CostCalculator(previous, acc.AverageRate, qty, *rate)
		}
	case entity.MovementOutward:
		d := date
		acc.LastSaleDate = &d
		acc.LastSaleRate = rate
	}

	acc.Status = StatusFor(newStock, acc.ReorderLevel)
	acc.TotalValue = Valuation(newStock, acc.AverageRate)
	acc.UpdatedAt = now
	return &acc.Movements[len(acc.Movements)-1], nil
}
