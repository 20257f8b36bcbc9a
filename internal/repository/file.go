// file.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voice-order-service/internal/model"
)

// FileOrderRepository guarda cada orden en <dir>/<id>.json.
// Cada escritura reemplaza el archivo completo: si dos procesos avanzan la
// misma orden a la vez gana la última escritura.
type FileOrderRepository struct {
	dir string
}

func NewFileOrderRepository(dir string) (*FileOrderRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating orders dir: %w", err)
	}
	return &FileOrderRepository{dir: dir}, nil
}

func (r *FileOrderRepository) Dir() string { return r.dir }

// Create falla con ErrOrderAlreadyExists si ya hay un archivo con ese id.
func (r *FileOrderRepository) Create(_ context.Context, o *model.Order) error {
	if !validID(o.ID) {
		return fmt.Errorf("invalid order id %q", o.ID)
	}
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(r.path(o.ID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return ErrOrderAlreadyExists
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *FileOrderRepository) Save(_ context.Context, o *model.Order) error {
	if !validID(o.ID) {
		return fmt.Errorf("invalid order id %q", o.ID)
	}
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}

	// Archivo temporal + rename para no dejar un JSON a medio escribir
	tmp, err := os.CreateTemp(r.dir, ".tmp-"+o.ID+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.path(o.ID))
}

func (r *FileOrderRepository) FindByOrderID(_ context.Context, orderID string) (*model.Order, error) {
	if !validID(orderID) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(r.path(orderID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var o model.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decoding order %s: %w", orderID, err)
	}
	if o.ID == "" {
		o.ID = orderID
	}
	return &o, nil
}

func (r *FileOrderRepository) FindIDsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	ids, err := r.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out, nil
}

// ListIDs devuelve los ids en orden lexicográfico (≈ cronológico por cliente,
// porque el id lleva el timestamp).
func (r *FileOrderRepository) ListIDs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "order_") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *FileOrderRepository) path(id string) string {
	return filepath.Join(r.dir, id+fileExt)
}
