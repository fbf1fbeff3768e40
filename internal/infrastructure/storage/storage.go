// Package storage abre el motor de persistencia configurado en STORE_DRIVER.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/reco-api/internal/application/inventory"
	"github.com/jhoicas/reco-api/internal/application/ledger"
	"github.com/jhoicas/reco-api/internal/domain/repository"
	"github.com/jhoicas/reco-api/internal/infrastructure/memory"
	"github.com/jhoicas/reco-api/internal/infrastructure/mongodb"
	"github.com/jhoicas/reco-api/internal/infrastructure/postgres"
	"github.com/jhoicas/reco-api/pkg/config"
	"github.com/jhoicas/reco-api/pkg/logger"
)

// Storage repositorios y runners de un motor. Close libera las conexiones.
type Storage struct {
	StockRepo  repository.StockAccountRepository
	LedgerRepo repository.PartyLedgerRepository
	StockTx    inventory.TxRunner
	LedgerTx   ledger.TxRunner
	Close      func()
}

// Open conecta el motor elegido. PostgreSQL aplica el esquema y Mongo crea los índices únicos.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		tx := postgres.NewTxRunner(pool)
		return &Storage{
			StockRepo:  postgres.NewStockAccountRepository(pool),
			LedgerRepo: postgres.NewPartyLedgerRepository(pool),
			StockTx:    tx,
			LedgerTx:   tx,
			Close:      pool.Close,
		}, nil

	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		tx := mongodb.NewTxRunner(db)
		return &Storage{
			StockRepo:  mongodb.NewStockAccountRepository(db),
			LedgerRepo: mongodb.NewPartyLedgerRepository(db),
			StockTx:    tx,
			LedgerTx:   tx,
			Close:      func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.StoreMemory:
		if log != nil {
			log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		}
		return Memory(memory.NewStore()), nil
	}
	return nil, fmt.Errorf("driver de almacenamiento %q no soportado", cfg.Store.Driver)
}

// Memory envuelve un almacén en memoria (desarrollo y tests).
func Memory(store *memory.Store) *Storage {
	tx := memory.NewTxRunner(store)
	return &Storage{
		StockRepo:  store.StockAccounts(),
		LedgerRepo: store.PartyLedgers(),
		StockTx:    tx,
		LedgerTx:   tx,
		Close:      func() {},
	}
}
