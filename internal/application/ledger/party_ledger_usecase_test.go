package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/application/ledger"
	"github.com/jhoicas/reco-api/internal/application/ports"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/repository"
	"github.com/jhoicas/reco-api/internal/infrastructure/lock"
	"github.com/jhoicas/reco-api/internal/infrastructure/memory"
)

const bizID = "biz-1"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newUseCase(wait time.Duration) (*ledger.PartyLedgerUseCase, *lock.KeyedMutex) {
	store := memory.NewStore()
	locker := lock.NewKeyedMutex(wait)
	return ledger.NewPartyLedgerUseCase(memory.NewTxRunner(store), store.PartyLedgers(), locker, nil, nil), locker
}

func createLedger(t *testing.T, uc *ledger.PartyLedgerUseCase, partyID, opening, openingType string) *dto.PartyLedgerResponse {
	t.Helper()
	l, err := uc.CreateLedger(context.Background(), bizID, dto.CreatePartyLedgerRequest{
		PartyID:            partyID,
		PartyName:          "Contraparte " + partyID,
		PartyType:          "seller",
		OpeningBalance:     dec(opening),
		OpeningBalanceType: openingType,
	})
	require.NoError(t, err)
	return l
}

func entry(typ, debit, credit string) dto.RecordTransactionRequest {
	return dto.RecordTransactionRequest{Type: typ, Debit: dec(debit), Credit: dec(credit)}
}

func TestRecordTransaction_SaldoCorrido(t *testing.T) {
	uc, _ := newUseCase(time.Second)
	ctx := context.Background()
	l := createLedger(t, uc, "farmer-1", "0", "")
	assert.Equal(t, "active", l.Status)
	assert.Equal(t, "debit", l.CurrentBalanceType)

	steps := []struct {
		in          dto.RecordTransactionRequest
		balance     string
		balanceType string
	}{
		{entry("invoice", "1000", "0"), "1000", "debit"},
		{entry("invoice", "500", "0"), "1500", "debit"},
		{entry("payment", "0", "2000"), "500", "credit"},
	}
	for i, s := range steps {
		res, err := uc.RecordTransaction(ctx, bizID, l.ID, "u1", s.in)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Transaction.Seq)
		assert.Equal(t, s.balance, res.Transaction.Balance.String())
		assert.Equal(t, s.balanceType, res.Transaction.BalanceType)
		assert.Equal(t, s.balance, res.Ledger.CurrentBalance.String())
		assert.Equal(t, s.balanceType, res.Ledger.CurrentBalanceType)
	}

	got, err := uc.GetLedgerByParty(ctx, bizID, "farmer-1")
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 3)
	assert.NotNil(t, got.LastTransactionDate)

	payments, err := uc.ListTransactions(ctx, bizID, l.ID, repository.TransactionFilter{Type: "payment"})
	require.NoError(t, err)
	require.Len(t, payments.Items, 1)
	assert.Equal(t, "2000", payments.Items[0].Credit.String())
}

func TestRecordTransaction_ParteDelSaldoInicialCredito(t *testing.T) {
	uc, _ := newUseCase(time.Second)
	l := createLedger(t, uc, "buyer-1", "300", "credit")
	assert.Equal(t, "300", l.CurrentBalance.String())
	assert.Equal(t, "credit", l.CurrentBalanceType)
	assert.Empty(t, l.Transactions)

	res, err := uc.RecordTransaction(context.Background(), bizID, l.ID, "u1", entry("invoice", "100", "0"))
	require.NoError(t, err)
	assert.Equal(t, "200", res.Transaction.Balance.String())
	assert.Equal(t, "credit", res.Transaction.BalanceType)
}

func TestRecordTransaction_Errores(t *testing.T) {
	uc, _ := newUseCase(time.Second)
	ctx := context.Background()
	l := createLedger(t, uc, "farmer-1", "0", "")

	_, err := uc.RecordTransaction(ctx, bizID, "no-existe", "u1", entry("invoice", "1", "0"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.RecordTransaction(ctx, bizID, l.ID, "u1", entry("gift", "1", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RecordTransaction(ctx, bizID, l.ID, "u1", entry("invoice", "-1", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RecordTransactionByParty(ctx, bizID, "nadie", "u1", entry("invoice", "1", "0"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := uc.GetLedger(ctx, bizID, l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Transactions)
}

func TestRecordTransaction_ConcurrentesNoPierdenAsientos(t *testing.T) {
	uc, _ := newUseCase(5 * time.Second)
	ctx := context.Background()
	l := createLedger(t, uc, "farmer-1", "0", "")

	const workers = 30
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.RecordTransactionByParty(ctx, bizID, "farmer-1", "u1", entry("invoice", "10", "0"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := uc.GetLedger(ctx, bizID, l.ID)
	require.NoError(t, err)
	require.Len(t, got.Transactions, workers)
	assert.Equal(t, "300", got.CurrentBalance.String())
	for i, tx := range got.Transactions {
		assert.Equal(t, dec("10").Mul(decimal.NewFromInt(int64(i+1))).String(), tx.Balance.String())
	}
}

func TestRecordTransaction_LibroOcupado(t *testing.T) {
	uc, locker := newUseCase(20 * time.Millisecond)
	ctx := context.Background()
	l := createLedger(t, uc, "farmer-1", "0", "")

	unlock, err := locker.Lock(ctx, ports.LedgerKey(l.ID))
	require.NoError(t, err)
	defer unlock()

	_, err = uc.RecordTransaction(ctx, bizID, l.ID, "u1", entry("invoice", "1", "0"))
	assert.ErrorIs(t, err, domain.ErrConcurrency)
}

func TestCreateLedger_Errores(t *testing.T) {
	uc, _ := newUseCase(time.Second)
	ctx := context.Background()
	createLedger(t, uc, "farmer-1", "0", "")

	_, err := uc.CreateLedger(ctx, bizID, dto.CreatePartyLedgerRequest{PartyID: "farmer-1", PartyName: "Otra", PartyType: "seller"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.CreateLedger(ctx, bizID, dto.CreatePartyLedgerRequest{PartyID: "x", PartyName: "X", PartyType: "alien"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateLedger(ctx, "", dto.CreatePartyLedgerRequest{PartyID: "x", PartyName: "X", PartyType: "buyer"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateLedger_SaldoInicialSoloSinAsientos(t *testing.T) {
	uc, _ := newUseCase(time.Second)
	ctx := context.Background()
	l := createLedger(t, uc, "farmer-1", "100", "debit")

	opening := dec("250")
	credit := "credit"
	updated, err := uc.UpdateLedger(ctx, bizID, l.ID, dto.UpdatePartyLedgerRequest{OpeningBalance: &opening, OpeningBalanceType: &credit})
	require.NoError(t, err)
	assert.Equal(t, "250", updated.CurrentBalance.String())
	assert.Equal(t, "credit", updated.CurrentBalanceType)

	_, err = uc.RecordTransaction(ctx, bizID, l.ID, "u1", entry("invoice", "50", "0"))
	require.NoError(t, err)

	_, err = uc.UpdateLedger(ctx, bizID, l.ID, dto.UpdatePartyLedgerRequest{OpeningBalance: &opening})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	name := "Finca La Esperanza"
	limit := dec("1000")
	updated, err = uc.UpdateLedger(ctx, bizID, l.ID, dto.UpdatePartyLedgerRequest{PartyName: &name, CreditLimit: &limit})
	require.NoError(t, err)
	assert.Equal(t, name, updated.PartyName)
	assert.Equal(t, "200", updated.CurrentBalance.String())
	assert.Equal(t, "credit", updated.CurrentBalanceType)
}

func TestDeleteLedger_Desactiva(t *testing.T) {
	uc, _ := newUseCase(time.Second)
	ctx := context.Background()
	l := createLedger(t, uc, "farmer-1", "0", "")
	createLedger(t, uc, "farmer-2", "0", "")
	_, err := uc.RecordTransaction(ctx, bizID, l.ID, "u1", entry("invoice", "10", "0"))
	require.NoError(t, err)

	require.NoError(t, uc.DeleteLedger(ctx, bizID, l.ID))
	assert.ErrorIs(t, uc.DeleteLedger(ctx, bizID, "no-existe"), domain.ErrNotFound)

	list, err := uc.ListLedgers(ctx, bizID, "", "", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "farmer-2", list.Items[0].PartyID)

	inactive, err := uc.ListLedgers(ctx, bizID, "", "inactive", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, inactive.Items, 1)

	got, err := uc.GetLedger(ctx, bizID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "inactive", got.Status)
	assert.Len(t, got.Transactions, 1)

	_, err = uc.ListLedgers(ctx, bizID, "", "borrado", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
