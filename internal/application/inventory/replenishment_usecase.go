package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ReplenishmentUseCase genera la lista de reposición de un negocio a partir de sus cuentas de stock.
type ReplenishmentUseCase struct {
	repo repository.StockAccountRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(repo repository.StockAccountRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{repo: repo}
}

var idealFactor = decimal.RequireFromString("1.5")

// GenerateReplenishmentList devuelve las cuentas bajo el nivel de reorden (low_stock y out_of_stock)
// con la cantidad sugerida de pedido y un ranking de prioridad por déficit.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, businessID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	if businessID == "" {
		return nil, fmt.Errorf("%w: business_id requerido", domain.ErrInvalidInput)
	}

	// 1. Cuentas por debajo del punto de reorden
	accounts, err := uc.repo.List(ctx, repository.StockAccountFilter{
		BusinessID: businessID,
		Statuses:   []entity.StockStatus{entity.StockLowStock, entity.StockOutOfStock},
	})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// 2. Cantidad sugerida: hasta el stock máximo, o 1.5 veces el reorden si no hay máximo
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(accounts))
	for _, a := range accounts {
		idealStock := a.ReorderLevel.Mul(idealFactor)
		if a.MaxStockLevel != nil && a.MaxStockLevel.IsPositive() {
			idealStock = *a.MaxStockLevel
		}
		suggestedQty := decimal.Max(idealStock.Sub(a.CurrentStock), decimal.Zero)

		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			AccountID:          a.ID,
			ProductID:          a.ProductID,
			SKU:                a.SKU,
			ProductName:        a.ProductName,
			Unit:               a.Unit,
			Status:             string(a.Status),
			CurrentStock:       a.CurrentStock,
			ReorderLevel:       a.ReorderLevel,
			IdealStock:         idealStock,
			SuggestedOrderQty:  suggestedQty,
			AverageRate:        a.AverageRate,
			EstimatedOrderCost: suggestedQty.Mul(a.AverageRate),
		})
	}

	// 3. Ordenar: mayor déficit bajo el reorden primero; empate por nombre
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		defA := a.ReorderLevel.Sub(a.CurrentStock)
		defB := b.ReorderLevel.Sub(b.CurrentStock)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		return a.ProductName < b.ProductName
	})

	// 4. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}

	return suggestions, nil
}
