package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
)

func newAccount(id, productID string) *entity.StockAccount {
	now := time.Now().UTC()
	return &entity.StockAccount{
		ID:           id,
		BusinessID:   "biz-1",
		ProductID:    productID,
		ProductName:  productID,
		Unit:         "kg",
		CurrentStock: decimal.Zero,
		Status:       entity.StockOutOfStock,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func appendMovement(acc *entity.StockAccount, qty int64) {
	prev := acc.CurrentStock
	acc.CurrentStock = prev.Add(decimal.NewFromInt(qty))
	acc.Movements = append(acc.Movements, entity.StockMovement{
		ID:            "m" + acc.CurrentStock.String(),
		Seq:           len(acc.Movements) + 1,
		Type:          entity.MovementInward,
		Quantity:      decimal.NewFromInt(qty),
		PreviousStock: prev,
		NewStock:      acc.CurrentStock,
	})
}

func TestStockAccountRepo_VersionDetectaEscriturasPerdidas(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().StockAccounts()
	require.NoError(t, repo.Create(ctx, newAccount("a1", "maize")))

	first, err := repo.GetForUpdate(ctx, "biz-1", "a1")
	require.NoError(t, err)
	second, err := repo.GetForUpdate(ctx, "biz-1", "a1")
	require.NoError(t, err)

	appendMovement(first, 10)
	require.NoError(t, repo.AppendMovement(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	appendMovement(second, 20)
	err = repo.AppendMovement(ctx, second)
	assert.True(t, errors.Is(err, domain.ErrConcurrency))

	stored, err := repo.GetByID(ctx, "", "a1")
	require.NoError(t, err)
	assert.Equal(t, "10", stored.CurrentStock.String())
	assert.Len(t, stored.Movements, 1)
}

func TestStockAccountRepo_CopiasIndependientes(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().StockAccounts()
	acc := newAccount("a1", "maize")
	require.NoError(t, repo.Create(ctx, acc))

	acc.ProductName = "mutado"
	got, err := repo.GetByID(ctx, "biz-1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "maize", got.ProductName)

	got.Movements = append(got.Movements, entity.StockMovement{ID: "x"})
	again, err := repo.GetByID(ctx, "biz-1", "a1")
	require.NoError(t, err)
	assert.Empty(t, again.Movements)
}

func TestStockAccountRepo_DuplicadoYAlcance(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().StockAccounts()
	require.NoError(t, repo.Create(ctx, newAccount("a1", "maize")))
	assert.ErrorIs(t, repo.Create(ctx, newAccount("a2", "maize")), domain.ErrDuplicate)

	other, err := repo.GetByID(ctx, "biz-2", "a1")
	require.NoError(t, err)
	assert.Nil(t, other)

	byProduct, err := repo.GetByProduct(ctx, "biz-1", "maize")
	require.NoError(t, err)
	require.NotNil(t, byProduct)
	assert.Equal(t, "a1", byProduct.ID)
}

func TestStockAccountRepo_ListMovementsPagina(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().StockAccounts()
	acc := newAccount("a1", "maize")
	for i := 0; i < 5; i++ {
		appendMovement(acc, 1)
	}
	require.NoError(t, repo.Create(ctx, acc))

	list, err := repo.ListMovements(ctx, "a1", repository.MovementFilter{Limit: 2, Offset: 3})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 4, list[0].Seq)
	assert.Equal(t, 5, list[1].Seq)

	empty, err := repo.ListMovements(ctx, "a1", repository.MovementFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPartyLedgerRepo_UpdateDetailsConservaAsientos(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().PartyLedgers()
	l := &entity.PartyLedger{
		ID: "l1", BusinessID: "biz-1", PartyID: "farmer-1", PartyType: entity.PartySeller,
		Status: entity.LedgerActive, Version: 1, CreatedAt: time.Now().UTC(),
		Transactions: []entity.LedgerTransaction{{ID: "t1", Seq: 1, Debit: decimal.NewFromInt(5)}},
	}
	require.NoError(t, repo.Create(ctx, l))
	assert.ErrorIs(t, repo.Create(ctx, l), domain.ErrDuplicate)

	upd, err := repo.GetForUpdate(ctx, "biz-1", "l1")
	require.NoError(t, err)
	upd.PartyName = "Finca"
	upd.Transactions = nil
	require.NoError(t, repo.UpdateDetails(ctx, upd))

	got, err := repo.GetByParty(ctx, "biz-1", "farmer-1")
	require.NoError(t, err)
	assert.Equal(t, "Finca", got.PartyName)
	assert.Len(t, got.Transactions, 1)
	assert.Equal(t, int64(2), got.Version)
}

func TestStore_ClavesCompuestasNoColisionan(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	accounts := store.StockAccounts()

	a := newAccount("a1", "c")
	a.BusinessID = "a|b"
	b := newAccount("a2", "b|c")
	b.BusinessID = "a"
	require.NoError(t, accounts.Create(ctx, a))
	require.NoError(t, accounts.Create(ctx, b))

	got, err := accounts.GetByProduct(ctx, "a|b", "c")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a1", got.ID)
	got, err = accounts.GetByProduct(ctx, "a", "b|c")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a2", got.ID)

	ledgers := store.PartyLedgers()
	for _, l := range []*entity.PartyLedger{
		{ID: "l1", BusinessID: "a|b", PartyID: "c", PartyType: entity.PartySeller, Status: entity.LedgerActive, Version: 1},
		{ID: "l2", BusinessID: "a", PartyID: "b|c", PartyType: entity.PartySeller, Status: entity.LedgerActive, Version: 1},
	} {
		require.NoError(t, ledgers.Create(ctx, l))
	}
	l, err := ledgers.GetByParty(ctx, "a", "b|c")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "l2", l.ID)
}
