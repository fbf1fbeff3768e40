package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/application/ports"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/repository"
	"github.com/jhoicas/reco-api/internal/infrastructure/lock"
	"github.com/jhoicas/reco-api/internal/infrastructure/memory"
)

const bizID = "biz-1"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type countingMetrics struct {
	mu        sync.Mutex
	entries   map[string]int
	conflicts int
	created   int
}

func (m *countingMetrics) EntryRecorded(_, entryType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]int{}
	}
	m.entries[entryType]++
}

func (m *countingMetrics) ConcurrencyConflict(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *countingMetrics) AccountCreated(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

type fixture struct {
	uc      *inventory.StockLedgerUseCase
	repl    *inventory.ReplenishmentUseCase
	locker  *lock.KeyedMutex
	metrics *countingMetrics
}

func newFixture(wait time.Duration) fixture {
	store := memory.NewStore()
	locker := lock.NewKeyedMutex(wait)
	m := &countingMetrics{}
	return fixture{
		uc:      inventory.NewStockLedgerUseCase(memory.NewTxRunner(store), store.StockAccounts(), locker, m, nil),
		repl:    inventory.NewReplenishmentUseCase(store.StockAccounts()),
		locker:  locker,
		metrics: m,
	}
}

func createAccount(t *testing.T, uc *inventory.StockLedgerUseCase, productID, opening, reorder string) *dto.StockAccountResponse {
	t.Helper()
	acc, err := uc.CreateAccount(context.Background(), bizID, "u1", dto.CreateStockAccountRequest{
		ProductID:    productID,
		ProductName:  "Producto " + productID,
		Unit:         "kg",
		OpeningStock: dec(opening),
		ReorderLevel: dec(reorder),
	})
	require.NoError(t, err)
	return acc
}

func move(typ, qty string) dto.RecordMovementRequest {
	return dto.RecordMovementRequest{Type: typ, Quantity: dec(qty)}
}

func TestCreateAccount_StockInicialComoAjuste(t *testing.T) {
	f := newFixture(time.Second)
	rate := dec("2.5")
	acc, err := f.uc.CreateAccount(context.Background(), bizID, "u1", dto.CreateStockAccountRequest{
		ProductID:    "maize",
		ProductName:  "Maíz",
		Unit:         "kg",
		OpeningStock: dec("40"),
		OpeningRate:  &rate,
		ReorderLevel: dec("10"),
	})
	require.NoError(t, err)

	assert.Equal(t, bizID, acc.BusinessID)
	assert.Equal(t, "40", acc.CurrentStock.String())
	assert.Equal(t, "in_stock", acc.Status)
	assert.Equal(t, "weighted_average", acc.ValuationMethod)
	assert.Equal(t, int64(1), acc.Version)
	require.Len(t, acc.Movements, 1)
	assert.Equal(t, "adjustment", acc.Movements[0].Type)
	assert.Equal(t, "0", acc.Movements[0].PreviousStock.String())
	assert.Equal(t, "40", acc.Movements[0].NewStock.String())
	assert.Equal(t, 1, f.metrics.created)
}

func TestCreateAccount_SinStockInicialQuedaAgotada(t *testing.T) {
	f := newFixture(time.Second)
	acc := createAccount(t, f.uc, "rice", "0", "5")
	assert.Equal(t, "out_of_stock", acc.Status)
	assert.Empty(t, acc.Movements)
}

func TestCreateAccount_Errores(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()
	createAccount(t, f.uc, "maize", "0", "0")

	_, err := f.uc.CreateAccount(ctx, bizID, "u1", dto.CreateStockAccountRequest{ProductID: "maize", ProductName: "Maíz", Unit: "kg"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// el mismo producto en otro negocio es otra cuenta
	_, err = f.uc.CreateAccount(ctx, "biz-2", "u1", dto.CreateStockAccountRequest{ProductID: "maize", ProductName: "Maíz", Unit: "kg"})
	assert.NoError(t, err)

	_, err = f.uc.CreateAccount(ctx, "", "u1", dto.CreateStockAccountRequest{ProductID: "beans", ProductName: "Fríjol", Unit: "kg"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreateAccount(ctx, bizID, "u1", dto.CreateStockAccountRequest{ProductID: "beans", Unit: "kg"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreateAccount(ctx, bizID, "u1", dto.CreateStockAccountRequest{
		ProductID: "beans", ProductName: "Fríjol", Unit: "kg", OpeningStock: dec("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordMovement_StockNegativoPermitido(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()
	acc := createAccount(t, f.uc, "maize", "100", "10")

	res, err := f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move("outward", "95"))
	require.NoError(t, err)
	assert.Equal(t, "5", res.Movement.NewStock.String())
	assert.Equal(t, "low_stock", res.Account.Status)

	res, err = f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move("outward", "10"))
	require.NoError(t, err)
	assert.Equal(t, "5", res.Movement.PreviousStock.String())
	assert.Equal(t, "-5", res.Movement.NewStock.String())
	assert.Equal(t, "-5", res.Account.CurrentStock.String())
	assert.Equal(t, "out_of_stock", res.Account.Status)
	assert.Equal(t, 2, f.metrics.entries["outward"])
}

func TestRecordMovement_NoEsIdempotente(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()
	acc := createAccount(t, f.uc, "maize", "10", "0")

	in := move("inward", "5")
	_, err := f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", in)
	require.NoError(t, err)
	res, err := f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", in)
	require.NoError(t, err)

	assert.Equal(t, "20", res.Account.CurrentStock.String())
	got, err := f.uc.GetAccount(ctx, bizID, acc.ID)
	require.NoError(t, err)
	assert.Len(t, got.Movements, 3)
	assert.NotEqual(t, got.Movements[1].ID, got.Movements[2].ID)
}

func TestRecordMovement_Errores(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()
	acc := createAccount(t, f.uc, "maize", "10", "0")

	_, err := f.uc.RecordMovement(ctx, bizID, "no-existe", "u1", move("inward", "1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.RecordMovement(ctx, "biz-2", acc.ID, "u1", move("inward", "1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move("teleport", "1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move("inward", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := f.uc.GetAccount(ctx, bizID, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", got.CurrentStock.String())
	assert.Len(t, got.Movements, 1)
}

func TestRecordMovement_ConcurrentesMantienenCadena(t *testing.T) {
	f := newFixture(5 * time.Second)
	ctx := context.Background()
	acc := createAccount(t, f.uc, "maize", "100", "0")

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ := "inward"
			if i%2 == 1 {
				typ = "outward"
			}
			_, err := f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move(typ, "3"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := f.uc.GetAccount(ctx, bizID, acc.ID)
	require.NoError(t, err)
	require.Len(t, got.Movements, workers+1)
	assert.Equal(t, "100", got.CurrentStock.String())
	for i := 1; i < len(got.Movements); i++ {
		assert.True(t, got.Movements[i].PreviousStock.Equal(got.Movements[i-1].NewStock), "movimiento %d", i)
		assert.Equal(t, i+1, got.Movements[i].Seq)
	}
	assert.Equal(t, int64(workers+1), got.Version)
	assert.Zero(t, f.metrics.conflicts)
}

func TestRecordMovement_CuentaOcupadaDevuelveConflicto(t *testing.T) {
	f := newFixture(20 * time.Millisecond)
	ctx := context.Background()
	acc := createAccount(t, f.uc, "maize", "10", "0")

	unlock, err := f.locker.Lock(ctx, ports.StockKey(acc.ID))
	require.NoError(t, err)
	_, err = f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move("inward", "1"))
	unlock()

	assert.ErrorIs(t, err, domain.ErrConcurrency)
	assert.Equal(t, 1, f.metrics.conflicts)

	_, err = f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move("inward", "1"))
	assert.NoError(t, err)
}

func TestRecordMovementByProduct(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()
	createAccount(t, f.uc, "maize", "10", "0")

	res, err := f.uc.RecordMovementByProduct(ctx, bizID, "maize", "u1", move("damage", "4"))
	require.NoError(t, err)
	assert.Equal(t, "6", res.Account.CurrentStock.String())

	_, err = f.uc.RecordMovementByProduct(ctx, bizID, "rice", "u1", move("inward", "1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.RecordMovementByProduct(ctx, "", "maize", "u1", move("inward", "1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateAccount_RecalculaEstado(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()
	acc := createAccount(t, f.uc, "maize", "15", "10")
	require.Equal(t, "in_stock", acc.Status)

	reorder := dec("20")
	name := "Maíz amarillo"
	updated, err := f.uc.UpdateAccount(ctx, bizID, acc.ID, dto.UpdateStockAccountRequest{ReorderLevel: &reorder, ProductName: &name})
	require.NoError(t, err)
	assert.Equal(t, "low_stock", updated.Status)
	assert.Equal(t, name, updated.ProductName)
	assert.Equal(t, "15", updated.CurrentStock.String())
	assert.Equal(t, int64(2), updated.Version)

	got, err := f.uc.GetAccount(ctx, bizID, acc.ID)
	require.NoError(t, err)
	assert.Len(t, got.Movements, 1)

	_, err = f.uc.UpdateAccount(ctx, bizID, "no-existe", dto.UpdateStockAccountRequest{ProductName: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()
	acc := createAccount(t, f.uc, "maize", "15", "10")

	assert.ErrorIs(t, f.uc.DeleteAccount(ctx, "biz-2", acc.ID), domain.ErrNotFound)
	require.NoError(t, f.uc.DeleteAccount(ctx, bizID, acc.ID))
	_, err := f.uc.GetAccount(ctx, bizID, acc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// el producto queda libre para una cuenta nueva
	createAccount(t, f.uc, "maize", "0", "0")
}

func TestListAccountsYMovimientos(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()
	acc := createAccount(t, f.uc, "maize", "5", "10")
	createAccount(t, f.uc, "rice", "50", "10")
	_, err := f.uc.CreateAccount(ctx, "biz-2", "u1", dto.CreateStockAccountRequest{ProductID: "beans", ProductName: "Fríjol", Unit: "kg"})
	require.NoError(t, err)

	list, err := f.uc.ListAccounts(ctx, bizID, "", "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 20, list.Page.Limit)
	for _, it := range list.Items {
		assert.Empty(t, it.Movements)
	}

	all, err := f.uc.ListAccounts(ctx, "", "", "", dto.PageRequest{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
	assert.Equal(t, 100, all.Page.Limit)

	low, err := f.uc.ListAccounts(ctx, bizID, "low_stock", "", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "maize", low.Items[0].ProductID)

	_, err = f.uc.ListAccounts(ctx, bizID, "perdido", "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move("inward", "7"))
	require.NoError(t, err)
	_, err = f.uc.RecordMovement(ctx, bizID, acc.ID, "u1", move("outward", "2"))
	require.NoError(t, err)

	movs, err := f.uc.ListMovements(ctx, bizID, acc.ID, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movs.Items, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{movs.Items[0].Seq, movs.Items[1].Seq, movs.Items[2].Seq})

	inward, err := f.uc.ListMovements(ctx, bizID, acc.ID, repository.MovementFilter{Type: "inward"})
	require.NoError(t, err)
	require.Len(t, inward.Items, 1)
	assert.Equal(t, "12", inward.Items[0].NewStock.String())

	_, err = f.uc.ListMovements(ctx, bizID, acc.ID, repository.MovementFilter{Type: "teleport"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.ListMovements(ctx, "biz-2", acc.ID, repository.MovementFilter{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
