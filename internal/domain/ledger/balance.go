package ledger

import (
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Signed convierte (magnitud, etiqueta) a un número con signo: débito positivo, crédito negativo.
func Signed(amount decimal.Decimal, t entity.BalanceType) decimal.Decimal {
	if t == entity.BalanceCredit {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// Split externaliza un saldo con signo como (magnitud, etiqueta). Cero se etiqueta débito.
func Split(signed decimal.Decimal) (decimal.Decimal, entity.BalanceType) {
	if signed.IsNegative() {
		return signed.Abs(), entity.BalanceCredit
	}
	return signed, entity.BalanceDebit
}

// RunningBalance saldo con signo después del último asiento, o el saldo inicial si no hay asientos.
func RunningBalance(l *entity.PartyLedger) decimal.Decimal {
	if last := l.LastTransaction(); last != nil {
		return Signed(last.Balance, last.BalanceType)
	}
	return Signed(l.OpeningBalance, l.OpeningBalanceType)
}

// ResetToOpening sincroniza el saldo actual con el saldo inicial. Sólo válido sin asientos.
func ResetToOpening(l *entity.PartyLedger) {
	if l.OpeningBalanceType == "" {
		l.OpeningBalanceType = entity.BalanceDebit
	}
	l.CurrentBalance, l.CurrentBalanceType = Split(Signed(l.OpeningBalance, l.OpeningBalanceType))
}
