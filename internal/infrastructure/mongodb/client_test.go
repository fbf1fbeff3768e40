package mongodb

import (
	"testing"
	"time"

	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestDecimalCodec_PreservesPrecision(t *testing.T) {
	reg := NewRegistry()
	rate := decimal.RequireFromString("1234.5678")
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	acc := &entity.StockAccount{
		ID:           "acc-1",
		BusinessID:   "b1",
		ProductID:    "p1",
		CurrentStock: decimal.RequireFromString("0.1"),
		ReorderLevel: decimal.NewFromInt(10),
		Status:       entity.StockLowStock,
		Version:      3,
		Movements: []entity.StockMovement{
			{ID: "m1", Seq: 1, Date: now, Type: entity.MovementInward, Quantity: decimal.RequireFromString("0.1"), NewStock: decimal.RequireFromString("0.1"), Rate: &rate},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	raw, err := bson.MarshalWithRegistry(reg, toStockAccountDoc(acc))
	require.NoError(t, err)

	val, err := bson.Raw(raw).LookupErr("current_stock")
	require.NoError(t, err)
	assert.Equal(t, bsontype.Decimal128, val.Type)
	maxVal, err := bson.Raw(raw).LookupErr("max_stock_level")
	require.NoError(t, err)
	assert.Equal(t, bsontype.Null, maxVal.Type)

	var doc stockAccountDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &doc))
	got := doc.toEntity()

	assert.True(t, got.CurrentStock.Equal(acc.CurrentStock))
	assert.True(t, got.ReorderLevel.Equal(acc.ReorderLevel))
	assert.Nil(t, got.MaxStockLevel)
	require.Len(t, got.Movements, 1)
	require.NotNil(t, got.Movements[0].Rate)
	assert.Equal(t, "1234.5678", got.Movements[0].Rate.String())
	assert.Equal(t, entity.MovementInward, got.Movements[0].Type)
	assert.Equal(t, int64(3), got.Version)
}

func TestDecimalCodec_DecodesNumericFallbacks(t *testing.T) {
	reg := NewRegistry()
	raw, err := bson.Marshal(bson.M{"debit": 150.5, "credit": int32(20), "balance": "130.5"})
	require.NoError(t, err)

	var doc ledgerTransactionDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &doc))
	assert.Equal(t, "150.5", doc.Debit.String())
	assert.Equal(t, "20", doc.Credit.String())
	assert.Equal(t, "130.5", doc.Balance.String())
}
