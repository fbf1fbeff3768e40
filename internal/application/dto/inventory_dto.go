package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocationDTO ubicación física (bodega, estante, casilla).
type LocationDTO struct {
	Warehouse string `json:"warehouse,omitempty" validate:"max=100"`
	Rack      string `json:"rack,omitempty" validate:"max=50"`
	Bin       string `json:"bin,omitempty" validate:"max=50"`
}

// CreateStockAccountRequest body para POST /api/inventory.
// BusinessID sólo se toma en cuenta para administradores; el resto usa el negocio del token.
type CreateStockAccountRequest struct {
	BusinessID      string           `json:"business_id,omitempty"`
	ProductID       string           `json:"product_id" validate:"required,max=64"`
	ProductName     string           `json:"product_name" validate:"required,min=1,max=200"`
	SKU             string           `json:"sku,omitempty" validate:"max=100"`
	Unit            string           `json:"unit" validate:"required,max=20"`
	ReorderLevel    decimal.Decimal  `json:"reorder_level" validate:"gte=0"`
	MaxStockLevel   *decimal.Decimal `json:"max_stock_level,omitempty" validate:"omitempty,gte=0"`
	Location        LocationDTO      `json:"location"`
	ValuationMethod string           `json:"valuation_method,omitempty" validate:"omitempty,oneof=FIFO LIFO weighted_average"`
	OpeningStock    decimal.Decimal  `json:"opening_stock" validate:"gte=0"`
	OpeningRate     *decimal.Decimal `json:"opening_rate,omitempty" validate:"omitempty,gte=0"`
}

// UpdateStockAccountRequest body para PUT /api/inventory/:id. El stock no es editable: sólo vía movimientos.
type UpdateStockAccountRequest struct {
	ProductName     *string          `json:"product_name" validate:"omitempty,min=1,max=200"`
	SKU             *string          `json:"sku" validate:"omitempty,max=100"`
	Unit            *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	ReorderLevel    *decimal.Decimal `json:"reorder_level" validate:"omitempty,gte=0"`
	MaxStockLevel   *decimal.Decimal `json:"max_stock_level" validate:"omitempty,gte=0"`
	Location        *LocationDTO     `json:"location"`
	ValuationMethod *string          `json:"valuation_method" validate:"omitempty,oneof=FIFO LIFO weighted_average"`
}

// RecordMovementRequest body para POST /api/inventory/:id/movements.
type RecordMovementRequest struct {
	Type            string           `json:"type" validate:"required"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"gt=0"`
	Rate            *decimal.Decimal `json:"rate,omitempty" validate:"omitempty,gte=0"`
	ReferenceType   string           `json:"reference_type,omitempty" validate:"omitempty,oneof=purchase sale lot invoice manual"`
	ReferenceID     string           `json:"reference_id,omitempty" validate:"max=64"`
	ReferenceNumber string           `json:"reference_number,omitempty" validate:"max=100"`
	Remarks         string           `json:"remarks,omitempty" validate:"max=500"`
	Date            *time.Time       `json:"date,omitempty"`
}

// StockMovementResponse salida de un movimiento.
type StockMovementResponse struct {
	ID              string           `json:"id"`
	Seq             int              `json:"seq"`
	Date            time.Time        `json:"date"`
	Type            string           `json:"type"`
	ReferenceType   string           `json:"reference_type,omitempty"`
	ReferenceID     string           `json:"reference_id,omitempty"`
	ReferenceNumber string           `json:"reference_number,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	PreviousStock   decimal.Decimal  `json:"previous_stock"`
	NewStock        decimal.Decimal  `json:"new_stock"`
	Rate            *decimal.Decimal `json:"rate,omitempty"`
	TotalValue      decimal.Decimal  `json:"total_value"`
	Remarks         string           `json:"remarks,omitempty"`
	CreatedBy       string           `json:"created_by,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// StockAccountResponse salida de una cuenta de stock. Movements sólo se incluye en el detalle.
type StockAccountResponse struct {
	ID               string                  `json:"id"`
	BusinessID       string                  `json:"business_id"`
	ProductID        string                  `json:"product_id"`
	ProductName      string                  `json:"product_name"`
	SKU              string                  `json:"sku,omitempty"`
	Unit             string                  `json:"unit"`
	CurrentStock     decimal.Decimal         `json:"current_stock"`
	ReorderLevel     decimal.Decimal         `json:"reorder_level"`
	MaxStockLevel    *decimal.Decimal        `json:"max_stock_level,omitempty"`
	Location         LocationDTO             `json:"location"`
	ValuationMethod  string                  `json:"valuation_method"`
	AverageRate      decimal.Decimal         `json:"average_rate"`
	TotalValue       decimal.Decimal         `json:"total_value"`
	LastPurchaseDate *time.Time              `json:"last_purchase_date,omitempty"`
	LastPurchaseRate *decimal.Decimal        `json:"last_purchase_rate,omitempty"`
	LastSaleDate     *time.Time              `json:"last_sale_date,omitempty"`
	LastSaleRate     *decimal.Decimal        `json:"last_sale_rate,omitempty"`
	Status           string                  `json:"status"`
	Version          int64                   `json:"version"`
	Movements        []StockMovementResponse `json:"movements,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// StockAccountListResponse lista paginada de cuentas de stock.
type StockAccountListResponse struct {
	Items []StockAccountResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}

// MovementListResponse lista paginada de movimientos (más antiguo primero).
type MovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// MovementResultResponse resultado de registrar un movimiento: cuenta actualizada y el movimiento nuevo.
type MovementResultResponse struct {
	Account  StockAccountResponse  `json:"account"`
	Movement StockMovementResponse `json:"movement"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para una cuenta bajo su nivel de reorden.
type ReplenishmentSuggestionDTO struct {
	AccountID          string          `json:"account_id"`
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku,omitempty"`
	ProductName        string          `json:"product_name"`
	Unit               string          `json:"unit"`
	Status             string          `json:"status"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	ReorderLevel       decimal.Decimal `json:"reorder_level"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // MaxStockLevel o ReorderLevel * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	AverageRate        decimal.Decimal `json:"average_rate"`         // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * AverageRate
	Priority           int             `json:"priority"`             // 1 = más urgente
}
