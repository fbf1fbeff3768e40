package ledger_test

import (
	"testing"
	"time"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "esperado %s, obtenido %s", want, got.String())
}

func newLedger(opening string, openingType entity.BalanceType) *entity.PartyLedger {
	l := &entity.PartyLedger{
		BusinessID:         "biz-1",
		PartyID:            "party-1",
		PartyName:          "Ravi Traders",
		PartyType:          entity.PartyBuyer,
		OpeningBalance:     dec(opening),
		OpeningBalanceType: openingType,
		Status:             entity.LedgerActive,
	}
	ledger.ResetToOpening(l)
	return l
}

func tx(debit, credit string) ledger.TransactionRequest {
	return ledger.TransactionRequest{
		Type:   entity.TransactionAdjustment,
		Debit:  dec(debit),
		Credit: dec(credit),
	}
}

func TestSignedSplit(t *testing.T) {
	assertDec(t, "-500", ledger.Signed(dec("500"), entity.BalanceCredit))
	assertDec(t, "500", ledger.Signed(dec("500"), entity.BalanceDebit))

	amount, typ := ledger.Split(dec("-20"))
	assertDec(t, "20", amount)
	assert.Equal(t, entity.BalanceCredit, typ)

	amount, typ = ledger.Split(decimal.Zero)
	assertDec(t, "0", amount)
	assert.Equal(t, entity.BalanceDebit, typ, "saldo cero se etiqueta débito por convención")
}

func TestApplyTransaction_EscenarioSaldoInicialDebito(t *testing.T) {
	l := newLedger("1000", entity.BalanceDebit)

	_, err := ledger.ApplyTransaction(l, tx("500", "0"), testNow)
	require.NoError(t, err)
	assertDec(t, "1500", l.CurrentBalance)
	assert.Equal(t, entity.BalanceDebit, l.CurrentBalanceType)

	last, err := ledger.ApplyTransaction(l, tx("0", "2000"), testNow)
	require.NoError(t, err)
	assertDec(t, "500", l.CurrentBalance)
	assert.Equal(t, entity.BalanceCredit, l.CurrentBalanceType)
	assertDec(t, "500", last.Balance)
	assert.Equal(t, entity.BalanceCredit, last.BalanceType)
	require.NotNil(t, l.LastTransactionDate)
}

func TestApplyTransaction_SaldoInicialCredito(t *testing.T) {
	l := newLedger("300", entity.BalanceCredit)
	assertDec(t, "300", l.CurrentBalance)
	assert.Equal(t, entity.BalanceCredit, l.CurrentBalanceType)

	_, err := ledger.ApplyTransaction(l, tx("100", "0"), testNow)
	require.NoError(t, err)
	assertDec(t, "200", l.CurrentBalance)
	assert.Equal(t, entity.BalanceCredit, l.CurrentBalanceType)
}

func TestApplyTransaction_SaldoCeroEsDebito(t *testing.T) {
	l := newLedger("250", entity.BalanceCredit)
	_, err := ledger.ApplyTransaction(l, tx("250", "0"), testNow)
	require.NoError(t, err)
	assertDec(t, "0", l.CurrentBalance)
	assert.Equal(t, entity.BalanceDebit, l.CurrentBalanceType)
}

func TestApplyTransaction_SaldoIgualAInicialMasSumatoria(t *testing.T) {
	l := newLedger("1000", entity.BalanceCredit)
	reqs := []ledger.TransactionRequest{
		tx("200", "0"), tx("0", "75.5"), tx("1200", "100"), tx("0", "0"), tx("10", "3000"), tx("4000", "0"),
	}
	expected := dec("-1000")
	for _, r := range reqs {
		expected = expected.Add(r.Debit).Sub(r.Credit)
		_, err := ledger.ApplyTransaction(l, r, testNow)
		require.NoError(t, err)
		assertDec(t, expected.String(), ledger.Signed(l.CurrentBalance, l.CurrentBalanceType))
	}
	assert.Len(t, l.Transactions, len(reqs))
	for i, trx := range l.Transactions {
		assert.Equal(t, i+1, trx.Seq)
	}
}

func TestApplyTransaction_Validaciones(t *testing.T) {
	cases := []struct {
		name string
		req  ledger.TransactionRequest
	}{
		{"debito negativo", tx("-1", "0")},
		{"credito negativo", tx("0", "-1")},
		{"ambos negativos", tx("-1", "-1")},
		{"tipo desconocido", ledger.TransactionRequest{Type: "gift"}},
		{"referencia desconocida", ledger.TransactionRequest{Type: entity.TransactionPayment, ReferenceType: "cheque"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := newLedger("10", entity.BalanceDebit)
			_, err := ledger.ApplyTransaction(l, tc.req, testNow)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, l.Transactions)
			assertDec(t, "10", l.CurrentBalance)
		})
	}
}

func TestCreditLimitExceeded(t *testing.T) {
	l := newLedger("0", entity.BalanceDebit)
	l.CreditLimit = dec("1000")
	_, err := ledger.ApplyTransaction(l, tx("1000", "0"), testNow)
	require.NoError(t, err)
	assert.False(t, l.CreditLimitExceeded())

	_, err = ledger.ApplyTransaction(l, tx("0.01", "0"), testNow)
	require.NoError(t, err)
	assert.True(t, l.CreditLimitExceeded())

	l.CreditLimit = decimal.Zero
	assert.False(t, l.CreditLimitExceeded(), "cupo cero significa sin cupo")
}
