package stock

import (
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StatusFor calcula el estado a partir del stock actual y el nivel de reorden:
// <= 0 agotado, <= reorden bajo, resto disponible.
func StatusFor(current, reorderLevel decimal.Decimal) entity.StockStatus {
	switch {
	case current.LessThanOrEqual(decimal.Zero):
		return entity.StockOutOfStock
	case current.LessThanOrEqual(reorderLevel):
		return entity.StockLowStock
	default:
		return entity.StockInStock
	}
}
