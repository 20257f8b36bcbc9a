// drink.go
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"voice-order-service/internal/model"
)

// FileDrinkRepository guarda las órdenes de la cafetería, una por archivo.
type FileDrinkRepository struct {
	dir string
}

func NewFileDrinkRepository(dir string) (*FileDrinkRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating drink orders dir: %w", err)
	}
	return &FileDrinkRepository{dir: dir}, nil
}

// Save escribe order_<nombre>_<YYYYMMDD_HHMMSS>.json y devuelve la ruta.
func (r *FileDrinkRepository) Save(_ context.Context, o *model.DrinkOrder) (string, error) {
	name := fmt.Sprintf("order_%s_%s%s", model.SafeName(o.Name), o.Timestamp.Format("20060102_150405"), fileExt)
	path := filepath.Join(r.dir, name)

	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
