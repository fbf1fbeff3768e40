package ledger

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
	"github.com/jhoicas/reco-api/internal/domain/ledger"
	"github.com/jhoicas/reco-api/internal/domain/repository"
	"github.com/jhoicas/reco-api/pkg/logger"
)

const metricsKind = "ledger"

// PartyLedgerUseCase administra libros de contrapartes y registra asientos con saldo corrido.
type PartyLedgerUseCase struct {
	txRunner TxRunner
	repo     repository.PartyLedgerRepository
	locker   ports.AccountLocker
	metrics  ports.LedgerMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewPartyLedgerUseCase construye el caso de uso. metrics y log pueden ser nil.
func NewPartyLedgerUseCase(
	txRunner TxRunner,
	repo repository.PartyLedgerRepository,
	locker ports.AccountLocker,
	metrics ports.LedgerMetrics,
	log *logger.Logger,
) *PartyLedgerUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PartyLedgerUseCase{
		txRunner: txRunner,
		repo:     repo,
		locker:   locker,
		metrics:  metrics,
		log:      log.Named("party_ledger"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateLedger crea el libro de (businessID, contraparte). El saldo actual arranca en el saldo inicial.
func (uc *PartyLedgerUseCase) CreateLedger(ctx context.Context, businessID string, in dto.CreatePartyLedgerRequest) (*dto.PartyLedgerResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if businessID == "" {
		return nil, fmt.Errorf("%w: business_id requerido", domain.ErrInvalidInput)
	}
	status := entity.LedgerStatus(in.Status)
	if status == "" {
		status = entity.LedgerActive
	}

	now := uc.now()
	l := &entity.PartyLedger{
		ID:                 uuid.New().String(),
		BusinessID:         businessID,
		PartyID:            in.PartyID,
		PartyName:          in.PartyName,
		PartyType:          entity.PartyType(in.PartyType),
		OpeningBalance:     in.OpeningBalance,
		OpeningBalanceType: entity.BalanceType(in.OpeningBalanceType),
		CreditLimit:        in.CreditLimit,
		CreditDays:         in.CreditDays,
		Status:             status,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	ledger.ResetToOpening(l)

	err := uc.txRunner.RunLedger(ctx, func(repo repository.PartyLedgerRepository) error {
		existing, err := repo.GetByParty(ctx, businessID, in.PartyID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: ya existe un libro para la contraparte %s", domain.ErrDuplicate, in.PartyID)
		}
		return repo.Create(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.AccountCreated(metricsKind)
	uc.log.Info().
		Str("business_id", l.BusinessID).
		Str("ledger_id", l.ID).
		Str("party_id", l.PartyID).
		Str("opening_balance", l.OpeningBalance.String()).
		Str("opening_balance_type", string(l.OpeningBalanceType)).
		Msg("libro de contraparte creado")
	out := toLedgerResponse(l, true)
	return &out, nil
}

// GetLedger devuelve el libro con sus asientos.
func (uc *PartyLedgerUseCase) GetLedger(ctx context.Context, businessID, id string) (*dto.PartyLedgerResponse, error) {
	l, err := uc.repo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: libro %s", domain.ErrNotFound, id)
	}
	out := toLedgerResponse(l, true)
	return &out, nil
}

// GetLedgerByParty busca el libro por su identidad (negocio, contraparte).
func (uc *PartyLedgerUseCase) GetLedgerByParty(ctx context.Context, businessID, partyID string) (*dto.PartyLedgerResponse, error) {
	l, err := uc.findByParty(ctx, businessID, partyID)
	if err != nil {
		return nil, err
	}
	out := toLedgerResponse(l, true)
	return &out, nil
}

// ListLedgers lista libros (más recientes primero). Los inactivos sólo aparecen si se piden con status.
func (uc *PartyLedgerUseCase) ListLedgers(ctx context.Context, businessID, partyType, status string, page dto.PageRequest) (*dto.PartyLedgerListResponse, error) {
	page.DefaultPage()
	switch entity.LedgerStatus(status) {
	case "", entity.LedgerActive, entity.LedgerInactive, entity.LedgerBlocked:
	default:
		return nil, fmt.Errorf("%w: estado %q no soportado", domain.ErrInvalidInput, status)
	}
	list, err := uc.repo.List(ctx, repository.PartyLedgerFilter{
		BusinessID: businessID,
		PartyType:  entity.PartyType(partyType),
		Status:     entity.LedgerStatus(status),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.PartyLedgerResponse, 0, len(list))
	for _, l := range list {
		items = append(items, toLedgerResponse(l, false))
	}
	return &dto.PartyLedgerListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// UpdateLedger modifica datos del libro. El saldo inicial sólo puede cambiar mientras no haya
// asientos; en ese caso el saldo actual se vuelve a derivar de él.
func (uc *PartyLedgerUseCase) UpdateLedger(ctx context.Context, businessID, id string, in dto.UpdatePartyLedgerRequest) (*dto.PartyLedgerResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	var updated *entity.PartyLedger
	err := uc.mutate(ctx, businessID, id, func(repo repository.PartyLedgerRepository, l *entity.PartyLedger) error {
		if in.OpeningBalance != nil || in.OpeningBalanceType != nil {
			if len(l.Transactions) > 0 {
				return fmt.Errorf("%w: el saldo inicial no puede modificarse con asientos registrados", domain.ErrInvalidInput)
			}
			if in.OpeningBalance != nil {
				l.OpeningBalance = *in.OpeningBalance
			}
			if in.OpeningBalanceType != nil {
				l.OpeningBalanceType = entity.BalanceType(*in.OpeningBalanceType)
			}
			ledger.ResetToOpening(l)
		}
		if in.PartyName != nil {
			l.PartyName = *in.PartyName
		}
		if in.CreditLimit != nil {
			l.CreditLimit = *in.CreditLimit
		}
		if in.CreditDays != nil {
			l.CreditDays = *in.CreditDays
		}
		if in.Status != nil {
			l.Status = entity.LedgerStatus(*in.Status)
		}
		l.UpdatedAt = uc.now()
		if err := repo.UpdateDetails(ctx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := toLedgerResponse(updated, false)
	return &out, nil
}

// DeleteLedger desactiva el libro (status inactive); el historial se conserva.
func (uc *PartyLedgerUseCase) DeleteLedger(ctx context.Context, businessID, id string) error {
	err := uc.mutate(ctx, businessID, id, func(repo repository.PartyLedgerRepository, l *entity.PartyLedger) error {
		l.Status = entity.LedgerInactive
		l.UpdatedAt = uc.now()
		return repo.UpdateDetails(ctx, l)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("business_id", businessID).Str("ledger_id", id).Msg("libro de contraparte desactivado")
	return nil
}

// RecordTransaction agrega un asiento: nuevo saldo = saldo anterior + débito - crédito.
// Bloquea el libro mientras lee el último saldo y persiste asiento y saldos en una sola escritura.
func (uc *PartyLedgerUseCase) RecordTransaction(ctx context.Context, businessID, ledgerID, userID string, in dto.RecordTransactionRequest) (*dto.TransactionResultResponse, error) {
	req, err := toTransactionRequest(in, userID)
	if err != nil {
		return nil, err
	}

	var (
		result *entity.PartyLedger
		tx     entity.LedgerTransaction
	)
	err = uc.mutate(ctx, businessID, ledgerID, func(repo repository.PartyLedgerRepository, l *entity.PartyLedger) error {
		t, err := ledger.ApplyTransaction(l, req, uc.now())
		if err != nil {
			return err
		}
		t.ID = uuid.New().String()
		tx = *t
		if err := repo.AppendTransaction(ctx, l); err != nil {
			return err
		}
		result = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.EntryRecorded(metricsKind, string(tx.Type))
	uc.log.Info().
		Str("business_id", result.BusinessID).
		Str("ledger_id", result.ID).
		Str("type", string(tx.Type)).
		Str("debit", tx.Debit.String()).
		Str("credit", tx.Credit.String()).
		Str("balance", tx.Balance.String()).
		Str("balance_type", string(tx.BalanceType)).
		Msg("asiento registrado")
	if result.CreditLimitExceeded() {
		uc.log.Warn().Str("ledger_id", result.ID).Str("credit_limit", result.CreditLimit.String()).Msg("cupo de crédito excedido")
	}

	return &dto.TransactionResultResponse{
		Ledger:      toLedgerResponse(result, false),
		Transaction: toTransactionResponse(tx),
	}, nil
}

// RecordTransactionByParty registra el asiento resolviendo el libro por (negocio, contraparte).
func (uc *PartyLedgerUseCase) RecordTransactionByParty(ctx context.Context, businessID, partyID, userID string, in dto.RecordTransactionRequest) (*dto.TransactionResultResponse, error) {
	l, err := uc.findByParty(ctx, businessID, partyID)
	if err != nil {
		return nil, err
	}
	return uc.RecordTransaction(ctx, businessID, l.ID, userID, in)
}

// ListTransactions devuelve los asientos del libro del más antiguo al más reciente.
func (uc *PartyLedgerUseCase) ListTransactions(ctx context.Context, businessID, ledgerID string, filter repository.TransactionFilter) (*dto.TransactionListResponse, error) {
	switch filter.Type {
	case "", entity.TransactionInvoice, entity.TransactionPayment, entity.TransactionReceipt,
		entity.TransactionAdjustment, entity.TransactionOpeningBalance:
	default:
		return nil, fmt.Errorf("%w: tipo de transacción %q no soportado", domain.ErrInvalidInput, filter.Type)
	}
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	l, err := uc.repo.GetByID(ctx, businessID, ledgerID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: libro %s", domain.ErrNotFound, ledgerID)
	}
	list, err := uc.repo.ListTransactions(ctx, l.ID, filter)
	if err != nil {
		return nil, err
	}
	return &dto.TransactionListResponse{
		Items: toTransactionResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// mutate serializa una escritura sobre el libro: clave del locker, transacción y GetForUpdate.
func (uc *PartyLedgerUseCase) mutate(ctx context.Context, businessID, id string, fn func(repository.PartyLedgerRepository, *entity.PartyLedger) error) error {
	unlock, err := uc.locker.Lock(ctx, ports.LedgerKey(id))
	if err != nil {
		uc.observeConflict(err, id)
		return err
	}
	defer unlock()

	err = uc.txRunner.RunLedger(ctx, func(repo repository.PartyLedgerRepository) error {
		l, err := repo.GetForUpdate(ctx, businessID, id)
		if err != nil {
			return err
		}
		if l == nil {
			return fmt.Errorf("%w: libro %s", domain.ErrNotFound, id)
		}
		return fn(repo, l)
	})
	uc.observeConflict(err, id)
	return err
}

func (uc *PartyLedgerUseCase) findByParty(ctx context.Context, businessID, partyID string) (*entity.PartyLedger, error) {
	if businessID == "" || partyID == "" {
		return nil, fmt.Errorf("%w: business_id y party_id requeridos", domain.ErrInvalidInput)
	}
	l, err := uc.repo.GetByParty(ctx, businessID, partyID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: no hay libro para la contraparte %s", domain.ErrNotFound, partyID)
	}
	return l, nil
}

func (uc *PartyLedgerUseCase) observeConflict(err error, ledgerID string) {
	if err == nil || !errors.Is(err, domain.ErrConcurrency) {
		return
	}
	uc.metrics.ConcurrencyConflict(metricsKind)
	uc.log.Warn().Err(err).Str("ledger_id", ledgerID).Msg("conflicto de concurrencia en libro")
}

func toTransactionRequest(in dto.RecordTransactionRequest, userID string) (ledger.TransactionRequest, error) {
	if err := dto.Validate(in); err != nil {
		return ledger.TransactionRequest{}, err
	}
	req := ledger.TransactionRequest{
		Type:            entity.TransactionType(in.Type),
		Debit:           in.Debit,
		Credit:          in.Credit,
		ReferenceType:   entity.LedgerReferenceType(in.ReferenceType),
		ReferenceID:     in.ReferenceID,
		ReferenceNumber: in.ReferenceNumber,
		Description:     in.Description,
		Date:            in.Date,
		CreatedBy:       userID,
	}
	return req, req.Validate()
}
