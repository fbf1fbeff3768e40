package repository

import (
	"context"
	"time"

	"github.com/jhoicas/reco-api/internal/domain/entity"
)

// PartyLedgerFilter filtros para listar libros de contrapartes.
// Sin Status explícito se excluyen los libros inactivos.
type PartyLedgerFilter struct {
	BusinessID string
	PartyType  entity.PartyType
	Status     entity.LedgerStatus
	Limit      int
	Offset     int
}

// TransactionFilter filtros para listar asientos (del más antiguo al más reciente).
type TransactionFilter struct {
	Type   entity.TransactionType
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// PartyLedgerRepository define el puerto de persistencia para libros de contrapartes (DIP).
type PartyLedgerRepository interface {
	// Create persiste el libro. ErrDuplicate si ya existe (negocio, contraparte).
	Create(ctx context.Context, l *entity.PartyLedger) error
	GetByID(ctx context.Context, businessID, id string) (*entity.PartyLedger, error)
	GetByParty(ctx context.Context, businessID, partyID string) (*entity.PartyLedger, error)
	GetForUpdate(ctx context.Context, businessID, id string) (*entity.PartyLedger, error)
	List(ctx context.Context, filter PartyLedgerFilter) ([]*entity.PartyLedger, error)
	// UpdateDetails actualiza datos del libro (incluido saldo inicial/actual cuando no hay asientos)
	// comparando la versión. ErrConcurrency si no coincide.
	UpdateDetails(ctx context.Context, l *entity.PartyLedger) error
	// AppendTransaction persiste el último asiento de l y los saldos derivados (control optimista).
	AppendTransaction(ctx context.Context, l *entity.PartyLedger) error
	ListTransactions(ctx context.Context, ledgerID string, filter TransactionFilter) ([]entity.LedgerTransaction, error)
}
