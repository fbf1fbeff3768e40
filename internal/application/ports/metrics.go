package ports

// LedgerMetrics registra contadores de escrituras sobre cuentas y libros.
// kind es "stock" o "ledger"; entryType el tipo de movimiento o asiento.
type LedgerMetrics interface {
	EntryRecorded(kind, entryType string)
	ConcurrencyConflict(kind string)
	AccountCreated(kind string)
}

// NopMetrics implementación vacía cuando las métricas están deshabilitadas.
type NopMetrics struct{}

func (NopMetrics) EntryRecorded(string, string) {}
func (NopMetrics) ConcurrencyConflict(string)   {}
func (NopMetrics) AccountCreated(string)        {}
