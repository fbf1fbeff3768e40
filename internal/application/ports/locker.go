package ports

import "context"

// AccountLocker serializa las mutaciones de una misma cuenta (clave "stock:<id>" o "ledger:<id>").
// Lock bloquea hasta obtener la clave o hasta que ctx termine; unlock libera la clave.
// Si la clave no puede obtenerse en el tiempo configurado devuelve domain.ErrConcurrency.
type AccountLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// StockKey clave de bloqueo para una cuenta de stock.
func StockKey(accountID string) string { return "stock:" + accountID }

// LedgerKey clave de bloqueo para un libro de contrapartes.
func LedgerKey(ledgerID string) string { return "ledger:" + ledgerID }
