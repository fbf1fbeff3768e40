package stock

import (
	"fmt"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
)

// signTable es la única fuente del signo de cada tipo de movimiento.
// Un tipo ausente aquí no puede registrarse.
var signTable = map[entity.MovementType]int64{
	entity.MovementInward:      +1,
	entity.MovementAdjustment:  +1,
	entity.MovementReturn:      +1,
	entity.MovementTransferIn:  +1,
	entity.MovementOutward:     -1,
	entity.MovementDamage:      -1,
	entity.MovementTransferOut: -1,
}

// Sign devuelve +1 o -1 para el tipo, o ErrInvalidInput si el tipo no existe.
// "transfer" sin dirección se rechaza: usar transfer_in / transfer_out.
func Sign(t entity.MovementType) (int64, error) {
	s, ok := signTable[t]
	if !ok {
		return 0, fmt.Errorf("%w: tipo de movimiento %q no soportado", domain.ErrInvalidInput, t)
	}
	return s, nil
}

// MovementTypes lista los tipos válidos (orden estable para mensajes y documentación).
func MovementTypes() []entity.MovementType {
	return []entity.MovementType{
		entity.MovementInward,
		entity.MovementOutward,
		entity.MovementAdjustment,
		entity.MovementTransferIn,
		entity.MovementTransferOut,
		entity.MovementDamage,
		entity.MovementReturn,
	}
}
