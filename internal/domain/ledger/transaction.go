package ledger

import (
	"fmt"
	"time"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TransactionRequest datos de un asiento a registrar.
type TransactionRequest struct {
	Type            entity.TransactionType
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	ReferenceType   entity.LedgerReferenceType
	ReferenceID     string
	ReferenceNumber string
	Description     string
	Date            *time.Time // nil = now
	CreatedBy       string
}

// Validate verifica tipo, referencia y que débito y crédito no sean negativos.
// Que ambos sean cero, o ambos distintos de cero, es responsabilidad del llamador.
func (r TransactionRequest) Validate() error {
	switch r.Type {
	case entity.TransactionInvoice, entity.TransactionPayment, entity.TransactionReceipt,
		entity.TransactionAdjustment, entity.TransactionOpeningBalance:
	default:
		return fmt.Errorf("%w: tipo de transacción %q no soportado", domain.ErrInvalidInput, r.Type)
	}
	switch r.ReferenceType {
	case "", entity.LedgerRefInvoice, entity.LedgerRefLot, entity.LedgerRefPayment, entity.LedgerRefManual:
	default:
		return fmt.Errorf("%w: tipo de referencia %q no soportado", domain.ErrInvalidInput, r.ReferenceType)
	}
	if r.Debit.IsNegative() || r.Credit.IsNegative() {
		return fmt.Errorf("%w: débito y crédito no pueden ser negativos", domain.ErrInvalidInput)
	}
	return nil
}

// ApplyTransaction agrega el asiento al final del libro: nuevo saldo = saldo anterior + débito - crédito.
// Sincroniza CurrentBalance, CurrentBalanceType y LastTransactionDate. Muta l.
func ApplyTransaction(l *entity.PartyLedger, req TransactionRequest, now time.Time) (*entity.LedgerTransaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	date := now
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}

	newSigned := RunningBalance(l).Add(req.Debit).Sub(req.Credit)
	balance, balanceType := Split(newSigned)

	l.Transactions = append(l.Transactions, entity.LedgerTransaction{
		Seq:             len(l.Transactions) + 1,
		Date:            date,
		Type:            req.Type,
		ReferenceType:   req.ReferenceType,
		ReferenceID:     req.ReferenceID,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		Debit:           req.Debit,
		Credit:          req.Credit,
		Balance:         balance,
		BalanceType:     balanceType,
		CreatedBy:       req.CreatedBy,
		CreatedAt:       now,
	})
	l.CurrentBalance = balance
	l.CurrentBalanceType = balanceType
	l.LastTransactionDate = &date
	l.UpdatedAt = now
	return &l.Transactions[len(l.Transactions)-1], nil
}
