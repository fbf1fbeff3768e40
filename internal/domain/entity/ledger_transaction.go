package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de transacción del libro de contrapartes.
type TransactionType string

const (
	TransactionInvoice        TransactionType = "invoice"
	TransactionPayment        TransactionType = "payment"
	TransactionReceipt        TransactionType = "receipt"
	TransactionAdjustment     TransactionType = "adjustment"
	TransactionOpeningBalance TransactionType = "opening_balance"
)

// LedgerReferenceType documento que originó la transacción.
type LedgerReferenceType string

const (
	LedgerRefInvoice LedgerReferenceType = "invoice"
	LedgerRefLot     LedgerReferenceType = "lot"
	LedgerRefPayment LedgerReferenceType = "payment"
	LedgerRefManual  LedgerReferenceType = "manual"
)

// LedgerTransaction asiento inmutable de un PartyLedger.
// Balance es la magnitud del saldo acumulado tras el asiento; BalanceType su signo.
type LedgerTransaction struct {
	ID              string
	Seq             int
	Date            time.Time
	Type            TransactionType
	ReferenceType   LedgerReferenceType
	ReferenceID     string
	ReferenceNumber string
	Description     string
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	Balance         decimal.Decimal
	BalanceType     BalanceType
	CreatedBy       string
	CreatedAt       time.Time
}
