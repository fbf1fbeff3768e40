package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationMethod método de valorización del inventario.
type ValuationMethod string

const (
	ValuationFIFO            ValuationMethod = "FIFO"
	ValuationLIFO            ValuationMethod = "LIFO"
	ValuationWeightedAverage ValuationMethod = "weighted_average"
)

// StockStatus estado derivado de la cuenta de stock.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLowStock   StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
	// StockDiscontinued es un valor reservado: la función de estado nunca lo produce.
	StockDiscontinued StockStatus = "discontinued"
)

// StockLocation ubicación física del producto dentro del negocio.
type StockLocation struct {
	Warehouse string
	Rack      string
	Bin       string
}

// StockAccount posición de stock de un producto para un negocio.
// Identidad: (BusinessID, ProductID). CurrentStock y Status son derivados: sólo cambian al
// registrar movimientos (ver domain/stock.ApplyMovement).
type StockAccount struct {
	ID               string
	BusinessID       string
	ProductID        string
	ProductName      string
	SKU              string
	Unit             string
	CurrentStock     decimal.Decimal
	ReorderLevel     decimal.Decimal
	MaxStockLevel    *decimal.Decimal
	Location         StockLocation
	ValuationMethod  ValuationMethod
	AverageRate      decimal.Decimal
	TotalValue       decimal.Decimal
	LastPurchaseDate *time.Time
	LastPurchaseRate *decimal.Decimal
	LastSaleDate     *time.Time
	LastSaleRate     *decimal.Decimal
	Status           StockStatus
	// Version se incrementa en cada escritura; base del control optimista.
	Version   int64
	Movements []StockMovement
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LastMovement devuelve el último movimiento o nil si la cuenta no tiene historial.
func (a *StockAccount) LastMovement() *StockMovement {
	if len(a.Movements) == 0 {
		return nil
	}
	return &a.Movements[len(a.Movements)-1]
}

// Clone copia profunda; los stores en memoria la usan para no compartir slices ni punteros.
func (a *StockAccount) Clone() *StockAccount {
	if a == nil {
		return nil
	}
	c := *a
	c.MaxStockLevel = cloneDecimal(a.MaxStockLevel)
	c.LastPurchaseRate = cloneDecimal(a.LastPurchaseRate)
	c.LastSaleRate = cloneDecimal(a.LastSaleRate)
	c.LastPurchaseDate = cloneTime(a.LastPurchaseDate)
	c.LastSaleDate = cloneTime(a.LastSaleDate)
	if a.Movements != nil {
		c.Movements = make([]StockMovement, len(a.Movements))
		for i, m := range a.Movements {
			m.Rate = cloneDecimal(m.Rate)
			c.Movements[i] = m
		}
	}
	return &c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
