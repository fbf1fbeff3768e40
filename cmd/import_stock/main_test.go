package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/infrastructure/lock"
	"github.com/jhoicas/reco-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleCSV = `product_id,product_name,sku,unit,opening_stock,opening_rate,reorder_level
maize,Maíz amarillo,MZ-01,kg,"120,5",1800,50
rice,Arroz,,kg,0,,10

beans,Fríjol,FR-02,bulto,30,95000,5
`

func TestReadRows_UTF8(t *testing.T) {
	rows, err := readRows(strings.NewReader(sampleCSV), false)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	maize := rows[0].in
	assert.Equal(t, 2, rows[0].line)
	assert.Equal(t, "maize", maize.ProductID)
	assert.Equal(t, "Maíz amarillo", maize.ProductName)
	assert.Equal(t, "120.5", maize.OpeningStock.String())
	require.NotNil(t, maize.OpeningRate)
	assert.Equal(t, "1800", maize.OpeningRate.String())
	assert.Equal(t, "50", maize.ReorderLevel.String())

	assert.Nil(t, rows[1].in.OpeningRate)
	assert.True(t, rows[1].in.OpeningStock.IsZero())
	assert.Equal(t, "bulto", rows[2].in.Unit)
	assert.Equal(t, 5, rows[2].line, "la línea vacía cuenta en la numeración")
}

func TestReadRows_Latin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(sampleCSV)
	require.NoError(t, err)

	rows, err := readRows(bytes.NewBufferString(encoded), true)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Fríjol", rows[2].in.ProductName)
}

func TestReadRows_Errores(t *testing.T) {
	_, err := readRows(strings.NewReader("sku,unit\nA,kg\n"), false)
	assert.ErrorContains(t, err, "product_id")

	_, err = readRows(strings.NewReader("product_id,product_name,unit,opening_stock\np1,P,kg,abc\n"), false)
	assert.ErrorContains(t, err, "opening_stock")
}

func TestImportRows_ReportaDuplicados(t *testing.T) {
	store := memory.NewStore()
	uc := inventory.NewStockLedgerUseCase(memory.NewTxRunner(store), store.StockAccounts(), lock.NewKeyedMutex(time.Second), nil, nil)
	rows, err := readRows(strings.NewReader(sampleCSV), false)
	require.NoError(t, err)

	ctx := context.Background()
	first := importRows(ctx, uc, "biz-1", rows)
	assert.Equal(t, 3, first.created)
	assert.Empty(t, first.duplicates)
	assert.Empty(t, first.failures)

	second := importRows(ctx, uc, "biz-1", rows)
	assert.Equal(t, 0, second.created)
	assert.ElementsMatch(t, []string{"maize", "rice", "beans"}, second.duplicates)

	acc, err := uc.GetAccountByProduct(ctx, "biz-1", "maize")
	require.NoError(t, err)
	assert.Equal(t, "120.5", acc.CurrentStock.String())
	require.Len(t, acc.Movements, 1)
	assert.Equal(t, "adjustment", acc.Movements[0].Type)
}

func TestImportRows_ErrorReportaLineaDelArchivo(t *testing.T) {
	const csvConHuecos = `product_id,product_name,unit,opening_stock

,,,
maize,Maíz,kg,10
beans,,kg,5
`
	store := memory.NewStore()
	uc := inventory.NewStockLedgerUseCase(memory.NewTxRunner(store), store.StockAccounts(), lock.NewKeyedMutex(time.Second), nil, nil)
	rows, err := readRows(strings.NewReader(csvConHuecos), false)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	res := importRows(context.Background(), uc, "biz-1", rows)
	assert.Equal(t, 1, res.created)
	require.Len(t, res.failures, 1)
	assert.ErrorIs(t, res.failures[0], domain.ErrInvalidInput)
	assert.Contains(t, res.failures[0].Error(), "fila 5 (beans)")
}
