// errors.go
package service

import (
	"errors"
	"fmt"
	"strings"

	"voice-order-service/internal/model"
	"voice-order-service/internal/repository"
)

// Errores de negocio exportados (los usan controller, tools y rabbit)
var (
	ErrEmptyCart        = fmt.Errorf("el carrito está vacío: %w", model.ErrInvalidState)
	ErrOrderNotFound    = repository.ErrNotFound
	ErrAmbiguousOrderID = fmt.Errorf("id de orden ambiguo: %w", model.ErrValidation)
	// la orden quedó guardada pero el carrito no se pudo vaciar
	ErrCartNotCleared = errors.New("order placed but cart was not cleared")
)

// AmbiguousOrderIDError se devuelve cuando un prefijo coincide con varias
// órdenes. errors.Is(err, ErrAmbiguousOrderID) es true.
type AmbiguousOrderIDError struct {
	Prefix     string
	Candidates []string
}

func (e *AmbiguousOrderIDError) Error() string {
	return fmt.Sprintf("%v: %q matches %s", ErrAmbiguousOrderID, e.Prefix, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousOrderIDError) Unwrap() error { return ErrAmbiguousOrderID }
