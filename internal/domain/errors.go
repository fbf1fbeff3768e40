package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los detalles se agregan con fmt.Errorf("%w: ...") y se comparan con errors.Is.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrConcurrency  = errors.New("el recurso fue modificado concurrentemente, reintente")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
)
