package ledger

import (
	"context"

	"github.com/jhoicas/reco-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con el repositorio de libros atado a ella.
type TxRunner interface {
	RunLedger(ctx context.Context, fn func(ledgerRepo repository.PartyLedgerRepository) error) error
}
