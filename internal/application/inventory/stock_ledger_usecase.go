package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/application/ports"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
	"github.com/jhoicas/reco-api/internal/domain/stock"
	"github.com/jhoicas/reco-api/pkg/logger"
	"github.com/shopspring/decimal"
)

const metricsKind = "stock"

// StockLedgerUseCase administra cuentas de stock y registra movimientos de forma transaccional.
// Cada mutación se serializa por cuenta: primero el AccountLocker, luego la transacción con
// GetForUpdate y finalmente la escritura con control de versión.
type StockLedgerUseCase struct {
	txRunner TxRunner
	repo     repository.StockAccountRepository
	locker   ports.AccountLocker
	metrics  ports.LedgerMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewStockLedgerUseCase construye el caso de uso. metrics y log pueden ser nil.
func NewStockLedgerUseCase(
	txRunner TxRunner,
	repo repository.StockAccountRepository,
	locker ports.AccountLocker,
	metrics ports.LedgerMetrics,
	log *logger.Logger,
) *StockLedgerUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StockLedgerUseCase{
		txRunner: txRunner,
		repo:     repo,
		locker:   locker,
		metrics:  metrics,
		log:      log.Named("stock_ledger"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccount crea la cuenta de stock de (businessID, producto). Si trae stock inicial se
// registra como un movimiento de ajuste en la misma escritura.
func (uc *StockLedgerUseCase) CreateAccount(ctx context.Context, businessID, userID string, in dto.CreateStockAccountRequest) (*dto.StockAccountResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if businessID == "" {
		return nil, fmt.Errorf("%w: business_id requerido", domain.ErrInvalidInput)
	}
	method := entity.ValuationMethod(in.ValuationMethod)
	if method == "" {
		method = entity.ValuationWeightedAverage
	}

	now := uc.now()
	acc := &entity.StockAccount{
		ID:              uuid.New().String(),
		BusinessID:      businessID,
		ProductID:       in.ProductID,
		ProductName:     in.ProductName,
		SKU:             in.SKU,
		Unit:            in.Unit,
		CurrentStock:    decimal.Zero,
		ReorderLevel:    in.ReorderLevel,
		MaxStockLevel:   in.MaxStockLevel,
		Location:        entity.StockLocation{Warehouse: in.Location.Warehouse, Rack: in.Location.Rack, Bin: in.Location.Bin},
		ValuationMethod: method,
		Status:          stock.StatusFor(decimal.Zero, in.ReorderLevel),
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.OpeningRate != nil {
		acc.AverageRate = *in.OpeningRate
	}
	if in.OpeningStock.IsPositive() {
		mov, err := stock.ApplyMovement(acc, stock.MovementRequest{
			Type:          entity.MovementAdjustment,
			Quantity:      in.OpeningStock,
			Rate:          in.OpeningRate,
			ReferenceType: entity.ReferenceManual,
			Remarks:       "stock inicial",
			CreatedBy:     userID,
		}, now)
		if err != nil {
			return nil, err
		}
		mov.ID = uuid.New().String()
	}

	err := uc.txRunner.Run(ctx, func(repo repository.StockAccountRepository) error {
		existing, err := repo.GetByProduct(ctx, businessID, in.ProductID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: ya existe una cuenta de stock para el producto %s", domain.ErrDuplicate, in.ProductID)
		}
		return repo.Create(ctx, acc)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.AccountCreated(metricsKind)
	uc.log.Info().
		Str("business_id", acc.BusinessID).
		Str("account_id", acc.ID).
		Str("product_id", acc.ProductID).
		Str("opening_stock", acc.CurrentStock.String()).
		Msg("cuenta de stock creada")
	out := toAccountResponse(acc, true)
	return &out, nil
}

// GetAccount devuelve la cuenta con su historial de movimientos.
func (uc *StockLedgerUseCase) GetAccount(ctx context.Context, businessID, id string) (*dto.StockAccountResponse, error) {
	acc, err := uc.repo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, id)
	}
	out := toAccountResponse(acc, true)
	return &out, nil
}

// GetAccountByProduct busca la cuenta por su identidad (negocio, producto).
func (uc *StockLedgerUseCase) GetAccountByProduct(ctx context.Context, businessID, productID string) (*dto.StockAccountResponse, error) {
	acc, err := uc.findByProduct(ctx, businessID, productID)
	if err != nil {
		return nil, err
	}
	out := toAccountResponse(acc, true)
	return &out, nil
}

// ListAccounts lista cuentas (más recientes primero). businessID vacío = todos los negocios.
func (uc *StockLedgerUseCase) ListAccounts(ctx context.Context, businessID, status, productID string, page dto.PageRequest) (*dto.StockAccountListResponse, error) {
	page.DefaultPage()
	switch entity.StockStatus(status) {
	case "", entity.StockInStock, entity.StockLowStock, entity.StockOutOfStock, entity.StockDiscontinued:
	default:
		return nil, fmt.Errorf("%w: estado %q no soportado", domain.ErrInvalidInput, status)
	}
	list, err := uc.repo.List(ctx, repository.StockAccountFilter{
		BusinessID: businessID,
		ProductID:  productID,
		Status:     entity.StockStatus(status),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockAccountResponse, 0, len(list))
	for _, a := range list {
		items = append(items, toAccountResponse(a, false))
	}
	return &dto.StockAccountListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// UpdateAccount modifica los datos descriptivos de la cuenta. El stock sólo cambia con movimientos;
// un cambio de nivel de reorden recalcula el estado.
func (uc *StockLedgerUseCase) UpdateAccount(ctx context.Context, businessID, id string, in dto.UpdateStockAccountRequest) (*dto.StockAccountResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	unlock, err := uc.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *entity.StockAccount
	err = uc.txRunner.Run(ctx, func(repo repository.StockAccountRepository) error {
		acc, err := repo.GetForUpdate(ctx, businessID, id)
		if err != nil {
			return err
		}
		if acc == nil {
			return fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, id)
		}
		applyAccountUpdate(acc, in)
		acc.Status = stock.StatusFor(acc.CurrentStock, acc.ReorderLevel)
		acc.UpdatedAt = uc.now()
		if err := repo.UpdateDetails(ctx, acc); err != nil {
			return err
		}
		updated = acc
		return nil
	})
	if err != nil {
		uc.observeConflict(err, id)
		return nil, err
	}
	out := toAccountResponse(updated, false)
	return &out, nil
}

func applyAccountUpdate(acc *entity.StockAccount, in dto.UpdateStockAccountRequest) {
	if in.ProductName != nil {
		acc.ProductName = *in.ProductName
	}
	if in.SKU != nil {
		acc.SKU = *in.SKU
	}
	if in.Unit != nil {
		acc.Unit = *in.Unit
	}
	if in.ReorderLevel != nil {
		acc.ReorderLevel = *in.ReorderLevel
	}
	if in.MaxStockLevel != nil {
		v := *in.MaxStockLevel
		acc.MaxStockLevel = &v
	}
	if in.Location != nil {
		acc.Location = entity.StockLocation{Warehouse: in.Location.Warehouse, Rack: in.Location.Rack, Bin: in.Location.Bin}
	}
	if in.ValuationMethod != nil {
		acc.ValuationMethod = entity.ValuationMethod(*in.ValuationMethod)
	}
}

// DeleteAccount elimina la cuenta y su historial.
func (uc *StockLedgerUseCase) DeleteAccount(ctx context.Context, businessID, id string) error {
	unlock, err := uc.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	err = uc.txRunner.Run(ctx, func(repo repository.StockAccountRepository) error {
		return repo.Delete(ctx, businessID, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("business_id", businessID).Str("account_id", id).Msg("cuenta de stock eliminada")
	return nil
}

// RecordMovement registra un movimiento sobre la cuenta: bloquea la cuenta, aplica el signo del
// tipo, agrega el movimiento al historial y persiste cuenta y movimiento en una sola escritura.
// No es idempotente: cada llamada agrega un movimiento.
func (uc *StockLedgerUseCase) RecordMovement(ctx context.Context, businessID, accountID, userID string, in dto.RecordMovementRequest) (*dto.MovementResultResponse, error) {
	req, err := toMovementRequest(in, userID)
	if err != nil {
		return nil, err
	}
	unlock, err := uc.lock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		acc *entity.StockAccount
		mov entity.StockMovement
	)
	err = uc.txRunner.Run(ctx, func(repo repository.StockAccountRepository) error {
		a, err := repo.GetForUpdate(ctx, businessID, accountID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, accountID)
		}
		m, err := stock.ApplyMovement(a, req, uc.now())
		if err != nil {
			return err
		}
		m.ID = uuid.New().String()
		mov = *m
		if err := repo.AppendMovement(ctx, a); err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		uc.observeConflict(err, accountID)
		return nil, err
	}

	uc.metrics.EntryRecorded(metricsKind, string(mov.Type))
	uc.log.Info().
		Str("business_id", acc.BusinessID).
		Str("account_id", acc.ID).
		Str("type", string(mov.Type)).
		Str("previous", mov.PreviousStock.String()).
		Str("new", mov.NewStock.String()).
		Str("status", string(acc.Status)).
		Msg("movimiento de stock registrado")

	return &dto.MovementResultResponse{
		Account:  toAccountResponse(acc, false),
		Movement: toMovementResponse(mov),
	}, nil
}

// RecordMovementByProduct registra el movimiento resolviendo la cuenta por (negocio, producto).
func (uc *StockLedgerUseCase) RecordMovementByProduct(ctx context.Context, businessID, productID, userID string, in dto.RecordMovementRequest) (*dto.MovementResultResponse, error) {
	acc, err := uc.findByProduct(ctx, businessID, productID)
	if err != nil {
		return nil, err
	}
	return uc.RecordMovement(ctx, businessID, acc.ID, userID, in)
}

// ListMovements devuelve los movimientos de la cuenta del más antiguo al más reciente.
func (uc *StockLedgerUseCase) ListMovements(ctx context.Context, businessID, accountID string, filter repository.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Type != "" {
		if _, err := stock.Sign(filter.Type); err != nil {
			return nil, err
		}
	}
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	acc, err := uc.repo.GetByID(ctx, businessID, accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, accountID)
	}
	list, err := uc.repo.ListMovements(ctx, acc.ID, filter)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: toMovementResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *StockLedgerUseCase) findByProduct(ctx context.Context, businessID, productID string) (*entity.StockAccount, error) {
	if businessID == "" || productID == "" {
		return nil, fmt.Errorf("%w: business_id y product_id requeridos", domain.ErrInvalidInput)
	}
	acc, err := uc.repo.GetByProduct(ctx, businessID, productID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: no hay cuenta de stock para el producto %s", domain.ErrNotFound, productID)
	}
	return acc, nil
}

func (uc *StockLedgerUseCase) lock(ctx context.Context, accountID string) (func(), error) {
	unlock, err := uc.locker.Lock(ctx, ports.StockKey(accountID))
	if err != nil {
		uc.observeConflict(err, accountID)
		return nil, err
	}
	return unlock, nil
}

func (uc *StockLedgerUseCase) observeConflict(err error, accountID string) {
	if !errors.Is(err, domain.ErrConcurrency) {
		return
	}
	uc.metrics.ConcurrencyConflict(metricsKind)
	uc.log.Warn().Err(err).Str("account_id", accountID).Msg("conflicto de concurrencia en cuenta de stock")
}

func toMovementRequest(in dto.RecordMovementRequest, userID string) (stock.MovementRequest, error) {
	if err := dto.Validate(in); err != nil {
		return stock.MovementRequest{}, err
	}
	req := stock.MovementRequest{
		Type:            entity.MovementType(in.Type),
		Quantity:        in.Quantity,
		Rate:            in.Rate,
		ReferenceType:   entity.ReferenceType(in.ReferenceType),
		ReferenceID:     in.ReferenceID,
		ReferenceNumber: in.ReferenceNumber,
		Remarks:         in.Remarks,
		Date:            in.Date,
		CreatedBy:       userID,
	}
	return req, req.Validate()
}
