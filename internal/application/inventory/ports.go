package inventory

import (
	"context"

	"github.com/jhoicas/reco-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando el repositorio atado a esa tx.
// Si fn devuelve error no queda ninguna escritura parcial.
type TxRunner interface {
	Run(ctx context.Context, fn func(stockRepo repository.StockAccountRepository) error) error
}
