// errors.go
package model

import "errors"

// Tipos de error de negocio. Los errores de cada paquete envuelven uno de
// estos con %w para que controller y tools los clasifiquen con errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation error")
)
