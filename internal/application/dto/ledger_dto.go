package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePartyLedgerRequest body para POST /api/ledgers.
type CreatePartyLedgerRequest struct {
	BusinessID         string          `json:"business_id,omitempty"`
	PartyID            string          `json:"party_id" validate:"required,max=64"`
	PartyName          string          `json:"party_name" validate:"required,min=1,max=200"`
	PartyType          string          `json:"party_type" validate:"required,oneof=buyer seller customer supplier service_provider"`
	OpeningBalance     decimal.Decimal `json:"opening_balance" validate:"gte=0"`
	OpeningBalanceType string          `json:"opening_balance_type,omitempty" validate:"omitempty,oneof=debit credit"`
	CreditLimit        decimal.Decimal `json:"credit_limit" validate:"gte=0"`
	CreditDays         int             `json:"credit_days" validate:"min=0,max=3650"`
	Status             string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive blocked"`
}

// UpdatePartyLedgerRequest body para PUT /api/ledgers/:id.
// El saldo inicial sólo puede cambiarse mientras el libro no tenga asientos.
type UpdatePartyLedgerRequest struct {
	PartyName          *string          `json:"party_name" validate:"omitempty,min=1,max=200"`
	CreditLimit        *decimal.Decimal `json:"credit_limit" validate:"omitempty,gte=0"`
	CreditDays         *int             `json:"credit_days" validate:"omitempty,min=0,max=3650"`
	Status             *string          `json:"status" validate:"omitempty,oneof=active inactive blocked"`
	OpeningBalance     *decimal.Decimal `json:"opening_balance" validate:"omitempty,gte=0"`
	OpeningBalanceType *string          `json:"opening_balance_type" validate:"omitempty,oneof=debit credit"`
}

// RecordTransactionRequest body para POST /api/ledgers/:id/transactions.
type RecordTransactionRequest struct {
	Type            string          `json:"type" validate:"required,oneof=invoice payment receipt adjustment opening_balance"`
	Debit           decimal.Decimal `json:"debit" validate:"gte=0"`
	Credit          decimal.Decimal `json:"credit" validate:"gte=0"`
	ReferenceType   string          `json:"reference_type,omitempty" validate:"omitempty,oneof=invoice lot payment manual"`
	ReferenceID     string          `json:"reference_id,omitempty" validate:"max=64"`
	ReferenceNumber string          `json:"reference_number,omitempty" validate:"max=100"`
	Description     string          `json:"description,omitempty" validate:"max=500"`
	Date            *time.Time      `json:"date,omitempty"`
}

// LedgerTransactionResponse salida de un asiento.
type LedgerTransactionResponse struct {
	ID              string          `json:"id"`
	Seq             int             `json:"seq"`
	Date            time.Time       `json:"date"`
	Type            string          `json:"type"`
	ReferenceType   string          `json:"reference_type,omitempty"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Description     string          `json:"description,omitempty"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Balance         decimal.Decimal `json:"balance"`
	BalanceType     string          `json:"balance_type"`
	CreatedBy       string          `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PartyLedgerResponse salida de un libro. Transactions sólo se incluye en el detalle.
type PartyLedgerResponse struct {
	ID                  string                      `json:"id"`
	BusinessID          string                      `json:"business_id"`
	PartyID             string                      `json:"party_id"`
	PartyName           string                      `json:"party_name"`
	PartyType           string                      `json:"party_type"`
	OpeningBalance      decimal.Decimal             `json:"opening_balance"`
	OpeningBalanceType  string                      `json:"opening_balance_type"`
	CreditLimit         decimal.Decimal             `json:"credit_limit"`
	CreditDays          int                         `json:"credit_days"`
	CurrentBalance      decimal.Decimal             `json:"current_balance"`
	CurrentBalanceType  string                      `json:"current_balance_type"`
	CreditLimitExceeded bool                        `json:"credit_limit_exceeded"`
	LastTransactionDate *time.Time                  `json:"last_transaction_date,omitempty"`
	Status              string                      `json:"status"`
	Version             int64                       `json:"version"`
	Transactions        []LedgerTransactionResponse `json:"transactions,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// PartyLedgerListResponse lista paginada de libros.
type PartyLedgerListResponse struct {
	Items []PartyLedgerResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// TransactionListResponse lista paginada de asientos (más antiguo primero).
type TransactionListResponse struct {
	Items []LedgerTransactionResponse `json:"items"`
	Page  PageResponse                `json:"page"`
}

// TransactionResultResponse resultado de registrar un asiento.
type TransactionResultResponse struct {
	Ledger      PartyLedgerResponse       `json:"ledger"`
	Transaction LedgerTransactionResponse `json:"transaction"`
}
