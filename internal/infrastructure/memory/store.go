package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/application/ledger"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ ledger.TxRunner    = (*TxRunner)(nil)
)

// Store almacén en proceso para desarrollo y tests. Guarda copias profundas: ningún llamador
// comparte slices ni punteros con el estado interno.
type Store struct {
	mu sync.RWMutex

	accounts       map[string]*entity.StockAccount
	accountByParty map[pairKey]string // (negocio, producto) -> id

	ledgers       map[string]*entity.PartyLedger
	ledgerByParty map[pairKey]string // (negocio, contraparte) -> id
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		accounts:       make(map[string]*entity.StockAccount),
		accountByParty: make(map[pairKey]string),
		ledgers:        make(map[string]*entity.PartyLedger),
		ledgerByParty:  make(map[pairKey]string),
	}
}

// StockAccounts repositorio de cuentas de stock sobre este almacén.
func (s *Store) StockAccounts() *StockAccountRepo { return &StockAccountRepo{s: s} }

// PartyLedgers repositorio de libros de contrapartes sobre este almacén.
func (s *Store) PartyLedgers() *PartyLedgerRepo { return &PartyLedgerRepo{s: s} }

// TxRunner ejecuta callbacks sobre el almacén. Cada callback hace a lo sumo una escritura y
// cada escritura es atómica bajo el mutex del almacén; no hay rollback que deshacer.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con el repositorio de cuentas de stock.
func (r *TxRunner) Run(ctx context.Context, fn func(stockRepo repository.StockAccountRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(r.store.StockAccounts())
}

// RunLedger ejecuta fn con el repositorio de libros de contrapartes.
func (r *TxRunner) RunLedger(ctx context.Context, fn func(ledgerRepo repository.PartyLedgerRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(r.store.PartyLedgers())
}

// pairKey índice único (negocio, producto|contraparte). Un struct evita que dos pares
// distintos compartan clave al concatenarlos.
type pairKey struct{ b, id string }

func key(businessID, id string) pairKey { return pairKey{b: businessID, id: id} }
