package repository

import (
	"context"
	"time"

	"github.com/jhoicas/reco-api/internal/domain/entity"
)

// StockAccountFilter filtros para listar cuentas de stock. BusinessID vacío = todos los negocios (admin).
type StockAccountFilter struct {
	BusinessID string
	ProductID  string
	Status     entity.StockStatus
	Statuses   []entity.StockStatus
	Limit      int
	Offset     int
}

// MovementFilter filtros para listar movimientos (siempre del más antiguo al más reciente).
type MovementFilter struct {
	Type   entity.MovementType
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// StockAccountRepository define el puerto de persistencia para cuentas de stock (DIP).
// Los métodos Get* devuelven (nil, nil) cuando no existe el registro, como el resto de repositorios.
// businessID vacío en Get* significa sin restricción de negocio.
type StockAccountRepository interface {
	// Create persiste la cuenta y sus movimientos iniciales. ErrDuplicate si ya existe (negocio, producto).
	Create(ctx context.Context, acc *entity.StockAccount) error
	GetByID(ctx context.Context, businessID, id string) (*entity.StockAccount, error)
	GetByProduct(ctx context.Context, businessID, productID string) (*entity.StockAccount, error)
	// GetForUpdate obtiene la cuenta con todos sus movimientos y, si el motor lo soporta, bloquea la fila.
	GetForUpdate(ctx context.Context, businessID, id string) (*entity.StockAccount, error)
	List(ctx context.Context, filter StockAccountFilter) ([]*entity.StockAccount, error)
	// UpdateDetails actualiza campos descriptivos y el estado; nunca el stock ni los movimientos.
	UpdateDetails(ctx context.Context, acc *entity.StockAccount) error
	// AppendMovement persiste el último movimiento de acc junto con los campos derivados,
	// comparando acc.Version con la versión almacenada. ErrConcurrency si no coincide.
	AppendMovement(ctx context.Context, acc *entity.StockAccount) error
	ListMovements(ctx context.Context, accountID string, filter MovementFilter) ([]entity.StockMovement, error)
	Delete(ctx context.Context, businessID, id string) error
}
