package mongodb

import (
	"context"

	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/application/ledger"
	"github.com/jhoicas/reco-api/internal/domain/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ ledger.TxRunner    = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks con los repositorios MongoDB. Cada mutación de cuenta o libro es
// una única escritura de documento (atómica en Mongo), así que no se abre sesión transaccional
// y el despliegue no necesita replica set.
type TxRunner struct {
	db *mongo.Database
}

// NewTxRunner construye el runner.
func NewTxRunner(db *mongo.Database) *TxRunner {
	return &TxRunner{db: db}
}

// Run ejecuta fn con el repositorio de cuentas de stock.
func (r *TxRunner) Run(ctx context.Context, fn func(stockRepo repository.StockAccountRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(NewStockAccountRepository(r.db))
}

// RunLedger ejecuta fn con el repositorio de libros de contrapartes.
func (r *TxRunner) RunLedger(ctx context.Context, fn func(ledgerRepo repository.PartyLedgerRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(NewPartyLedgerRepository(r.db))
}
