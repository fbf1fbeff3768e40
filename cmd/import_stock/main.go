// import_stock da de alta cuentas de stock a partir de un CSV exportado del sistema anterior.
//
// Uso: go run ./cmd/import_stock <archivo.csv> <business_id> [latin1]
//
// Columnas: product_id,product_name,sku,unit,opening_stock,opening_rate,reorder_level
// La primera fila es el encabezado. Con "latin1" el archivo se decodifica como ISO-8859-1.
// Los productos que ya tienen cuenta se reportan y se omiten.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/infrastructure/lock"
	"github.com/jhoicas/reco-api/internal/infrastructure/storage"
	"github.com/jhoicas/reco-api/pkg/config"
	"github.com/jhoicas/reco-api/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const importUserID = "import_stock"

var columns = []string{"product_id", "product_name", "sku", "unit", "opening_stock", "opening_rate", "reorder_level"}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "uso: import_stock <archivo.csv> <business_id> [latin1]")
		os.Exit(2)
	}
	path, businessID := os.Args[1], os.Args[2]
	latin1 := len(os.Args) > 3 && strings.EqualFold(os.Args[3], "latin1")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "import_stock"})

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("abrir CSV")
	}
	defer f.Close()

	rows, err := readRows(f, latin1)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("leer CSV")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión al almacenamiento")
	}
	defer store.Close()

	uc := inventory.NewStockLedgerUseCase(store.StockTx, store.StockRepo, lock.NewKeyedMutex(cfg.Lock.Wait()), nil, log)
	res := importRows(ctx, uc, businessID, rows)
	for _, d := range res.duplicates {
		log.Warn().Str("product_id", d).Msg("producto con cuenta existente, omitido")
	}
	for _, e := range res.failures {
		log.Error().Err(e).Msg("fila rechazada")
	}
	fmt.Printf("Importadas %d cuentas, %d duplicadas, %d con error\n", res.created, len(res.duplicates), len(res.failures))
	if len(res.failures) > 0 {
		os.Exit(1)
	}
}

type importResult struct {
	created    int
	duplicates []string
	failures   []error
}

// accountCreator lo implementa *inventory.StockLedgerUseCase.
type accountCreator interface {
	CreateAccount(ctx context.Context, businessID, userID string, in dto.CreateStockAccountRequest) (*dto.StockAccountResponse, error)
}

func importRows(ctx context.Context, uc accountCreator, businessID string, rows []csvRow) importResult {
	var res importResult
	for _, row := range rows {
		_, err := uc.CreateAccount(ctx, businessID, importUserID, row.in)
		switch {
		case err == nil:
			res.created++
		case errors.Is(err, domain.ErrDuplicate):
			res.duplicates = append(res.duplicates, row.in.ProductID)
		default:
			res.failures = append(res.failures, fmt.Errorf("fila %d (%s): %w", row.line, row.in.ProductID, err))
		}
	}
	return res
}

// csvRow fila de datos con su línea en el archivo, para reportar errores aunque se omitan filas vacías.
type csvRow struct {
	line int
	in   dto.CreateStockAccountRequest
}

// readRows lee el CSV completo. Las filas vacías se ignoran; un valor numérico inválido aborta.
func readRows(r io.Reader, latin1 bool) ([]csvRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range []string{"product_id", "product_name", "unit"} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q (esperadas: %s)", c, strings.Join(columns, ","))
		}
	}

	var out []csvRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer fila: %w", err)
		}
		line, _ := cr.FieldPos(0)
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get("product_id") == "" {
			continue
		}
		in := dto.CreateStockAccountRequest{
			ProductID:   get("product_id"),
			ProductName: get("product_name"),
			SKU:         get("sku"),
			Unit:        get("unit"),
		}
		if in.OpeningStock, err = parseDecimal(get("opening_stock")); err != nil {
			return nil, fmt.Errorf("línea %d opening_stock: %w", line, err)
		}
		if in.ReorderLevel, err = parseDecimal(get("reorder_level")); err != nil {
			return nil, fmt.Errorf("línea %d reorder_level: %w", line, err)
		}
		if raw := get("opening_rate"); raw != "" {
			rate, err := parseDecimal(raw)
			if err != nil {
				return nil, fmt.Errorf("línea %d opening_rate: %w", line, err)
			}
			in.OpeningRate = &rate
		}
		out = append(out, csvRow{line: line, in: in})
	}
	return out, nil
}

// parseDecimal acepta coma decimal ("12,5") como la exportan las hojas de cálculo en español.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
