package repository

import (
	"errors"
	"fmt"
	"strings"

	"voice-order-service/internal/model"
)

var (
	ErrNotFound           = fmt.Errorf("orden no encontrada: %w", model.ErrNotFound)
	ErrOrderAlreadyExists = errors.New("la orden ya existe")
)

const fileExt = ".json"

// validID rechaza ids que podrían salir del directorio de órdenes.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." &&
		!strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}
