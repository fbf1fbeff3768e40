package inventory

import (
	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/domain/entity"
)

func toAccountResponse(a *entity.StockAccount, withMovements bool) dto.StockAccountResponse {
	out := dto.StockAccountResponse{
		ID:               a.ID,
		BusinessID:       a.BusinessID,
		ProductID:        a.ProductID,
		ProductName:      a.ProductName,
		SKU:              a.SKU,
		Unit:             a.Unit,
		CurrentStock:     a.CurrentStock,
		ReorderLevel:     a.ReorderLevel,
		MaxStockLevel:    a.MaxStockLevel,
		Location:         dto.LocationDTO{Warehouse: a.Location.Warehouse, Rack: a.Location.Rack, Bin: a.Location.Bin},
		ValuationMethod:  string(a.ValuationMethod),
		AverageRate:      a.AverageRate,
		TotalValue:       a.TotalValue,
		LastPurchaseDate: a.LastPurchaseDate,
		LastPurchaseRate: a.LastPurchaseRate,
		LastSaleDate:     a.LastSaleDate,
		LastSaleRate:     a.LastSaleRate,
		Status:           string(a.Status),
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if withMovements {
		out.Movements = toMovementResponses(a.Movements)
	}
	return out
}

func toMovementResponses(list []entity.StockMovement) []dto.StockMovementResponse {
	out := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toMovementResponse(m entity.StockMovement) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID:              m.ID,
		Seq:             m.Seq,
		Date:            m.Date,
		Type:            string(m.Type),
		ReferenceType:   string(m.ReferenceType),
		ReferenceID:     m.ReferenceID,
		ReferenceNumber: m.ReferenceNumber,
		Quantity:        m.Quantity,
		PreviousStock:   m.PreviousStock,
		NewStock:        m.NewStock,
		Rate:            m.Rate,
		TotalValue:      m.TotalValue,
		Remarks:         m.Remarks,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}
