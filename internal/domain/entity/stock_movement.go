package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de stock. El signo de cada tipo vive en domain/stock.
type MovementType string

const (
	MovementInward      MovementType = "inward"       // entrada (compra)
	MovementOutward     MovementType = "outward"      // salida (venta)
	MovementAdjustment  MovementType = "adjustment"   // ajuste (siempre suma)
	MovementTransferIn  MovementType = "transfer_in"  // traslado recibido
	MovementTransferOut MovementType = "transfer_out" // traslado enviado
	MovementDamage      MovementType = "damage"       // merma
	MovementReturn      MovementType = "return"       // devolución
)

// ReferenceType origen del movimiento.
type ReferenceType string

const (
	ReferencePurchase ReferenceType = "purchase"
	ReferenceSale     ReferenceType = "sale"
	ReferenceLot      ReferenceType = "lot"
	ReferenceInvoice  ReferenceType = "invoice"
	ReferenceManual   ReferenceType = "manual"
)

// StockMovement movimiento inmutable dentro de una StockAccount.
// Quantity siempre es magnitud positiva; NewStock = PreviousStock ± Quantity según el tipo.
type StockMovement struct {
	ID              string
	Seq             int
	Date            time.Time
	Type            MovementType
	ReferenceType   ReferenceType
	ReferenceID     string
	ReferenceNumber string
	Quantity        decimal.Decimal
	PreviousStock   decimal.Decimal
	NewStock        decimal.Decimal
	Rate            *decimal.Decimal
	TotalValue      decimal.Decimal
	Remarks         string
	CreatedBy       string
	CreatedAt       time.Time
}
