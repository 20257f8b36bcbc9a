package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"voice-order-service/internal/barista"
	"voice-order-service/internal/metrics"
	"voice-order-service/internal/model"
)

var ErrUnknownTool = fmt.Errorf("tool desconocida: %w", model.ErrNotFound)

// Handler recibe los argumentos ya validados contra InputSchema y devuelve
// el texto que se le lee al usuario.
type Handler func(ctx context.Context, s *Session, args json.RawMessage) (string, error)

// Tool es una operación que la capa de voz puede invocar por nombre.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
	Handler     Handler         `json:"-"`
}

// Session es el estado de UNA conversación. El carrito vive en el
// cart.Store bajo Session.ID; la orden del barista vive acá.
type Session struct {
	ID    string
	Drink barista.Order

	mu sync.Mutex
}

// NewSession con id vacío genera uno nuevo.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id}
}

// DrinkState copia la orden del barista en curso y los campos que faltan.
// No se puede llamar desde un Handler: Invoke ya tiene tomada la sesión.
func (s *Session) DrinkState() (model.DrinkOrder, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Drink.Snapshot(), s.Drink.Missing()
}

// ValidationError indica argumentos que no cumplen el schema de la tool.
type ValidationError struct {
	Tool   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s", e.Tool, e.Detail)
}

func (e *ValidationError) Unwrap() error { return model.ErrValidation }

type entry struct {
	tool   Tool
	schema *gojsonschema.Schema
}

// Registry mapea nombre -> tool. Se arma una vez al arrancar; no es seguro
// registrar tools mientras otras goroutines invocan.
type Registry struct {
	tools   map[string]*entry
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewRegistry(m *metrics.Metrics, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{tools: make(map[string]*entry), metrics: m, log: log}
}

// Register compila el schema de entrada y agrega la tool.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return errors.New("tool name is empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}
	if _, dup := r.tools[t.Name]; dup {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	if len(t.InputSchema) == 0 {
		t.InputSchema = json.RawMessage(`{"type":"object"}`)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.InputSchema))
	if err != nil {
		return fmt.Errorf("invalid input schema for tool %s: %w", t.Name, err)
	}
	r.tools[t.Name] = &entry{tool: t, schema: schema}
	return nil
}

func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Get(name string) (Tool, bool) {
	e, ok := r.tools[name]
	if !ok {
		return Tool{}, false
	}
	return e.tool, true
}

// List devuelve las tools ordenadas por nombre.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, e.tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke valida los argumentos y ejecuta la tool. Las llamadas sobre una
// misma sesión se serializan.
func (r *Registry) Invoke(ctx context.Context, s *Session, name string, args json.RawMessage) (string, error) {
	e, ok := r.tools[name]
	if !ok {
		r.metrics.ToolCalled("unknown", "unknown")
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	res, err := e.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		r.metrics.ToolCalled(name, "invalid")
		return "", &ValidationError{Tool: name, Detail: err.Error()}
	}
	if !res.Valid() {
		details := make([]string, len(res.Errors()))
		for i, d := range res.Errors() {
			details[i] = d.String()
		}
		r.metrics.ToolCalled(name, "invalid")
		return "", &ValidationError{Tool: name, Detail: fmt.Sprintf("%v", details)}
	}

	s.mu.Lock()
	out, err := e.tool.Handler(ctx, s, args)
	s.mu.Unlock()
	if err != nil {
		r.metrics.ToolCalled(name, "error")
		r.log.Error("tool failed", zap.String("tool", name), zap.String("session", s.ID), zap.Error(err))
		return "", err
	}
	r.metrics.ToolCalled(name, "ok")
	r.log.Debug("tool invoked", zap.String("tool", name), zap.String("session", s.ID))
	return out, nil
}

// Typed decodifica los argumentos en T antes de llamar a fn.
func Typed[T any](fn func(ctx context.Context, s *Session, in T) (string, error)) Handler {
	return func(ctx context.Context, s *Session, args json.RawMessage) (string, error) {
		var in T
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("%w: %v", model.ErrValidation, err)
			}
		}
		return fn(ctx, s, in)
	}
}
