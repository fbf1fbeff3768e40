package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyType tipo de contraparte del libro.
type PartyType string

const (
	PartyBuyer           PartyType = "buyer"
	PartySeller          PartyType = "seller"
	PartyCustomer        PartyType = "customer"
	PartySupplier        PartyType = "supplier"
	PartyServiceProvider PartyType = "service_provider"
)

// BalanceType etiqueta de signo de un saldo: debit (+) o credit (-).
type BalanceType string

const (
	BalanceDebit  BalanceType = "debit"
	BalanceCredit BalanceType = "credit"
)

// LedgerStatus estado administrativo del libro.
type LedgerStatus string

const (
	LedgerActive   LedgerStatus = "active"
	LedgerInactive LedgerStatus = "inactive"
	LedgerBlocked  LedgerStatus = "blocked"
)

// PartyLedger cuenta corriente de una contraparte para un negocio.
// Identidad: (BusinessID, PartyID). CurrentBalance/CurrentBalanceType reflejan el saldo de la
// última transacción (o el saldo inicial si no hay transacciones).
type PartyLedger struct {
	ID                  string
	BusinessID          string
	PartyID             string
	PartyName           string
	PartyType           PartyType
	OpeningBalance      decimal.Decimal
	OpeningBalanceType  BalanceType
	CreditLimit         decimal.Decimal
	CreditDays          int
	CurrentBalance      decimal.Decimal
	CurrentBalanceType  BalanceType
	LastTransactionDate *time.Time
	Status              LedgerStatus
	Version             int64
	Transactions        []LedgerTransaction
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LastTransaction devuelve la última transacción o nil.
func (l *PartyLedger) LastTransaction() *LedgerTransaction {
	if len(l.Transactions) == 0 {
		return nil
	}
	return &l.Transactions[len(l.Transactions)-1]
}

// CreditLimitExceeded indica si el saldo deudor supera el cupo de crédito (0 = sin cupo).
func (l *PartyLedger) CreditLimitExceeded() bool {
	return l.CurrentBalanceType == BalanceDebit &&
		l.CreditLimit.GreaterThan(decimal.Zero) &&
		l.CurrentBalance.GreaterThan(l.CreditLimit)
}

// Clone copia profunda del libro y sus transacciones.
func (l *PartyLedger) Clone() *PartyLedger {
	if l == nil {
		return nil
	}
	c := *l
	c.LastTransactionDate = cloneTime(l.LastTransactionDate)
	if l.Transactions != nil {
		c.Transactions = make([]LedgerTransaction, len(l.Transactions))
		copy(c.Transactions, l.Transactions)
	}
	return &c
}
