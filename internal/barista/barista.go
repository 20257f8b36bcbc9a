package barista

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"voice-order-service/internal/model"
)

var (
	ErrInvalidChoice   = fmt.Errorf("opción no disponible: %w", model.ErrValidation)
	ErrIncompleteOrder = fmt.Errorf("la orden está incompleta: %w", model.ErrInvalidState)
)

// Opciones válidas (por nombre, en minúsculas)
var (
	DrinkTypes = []string{"latte", "cappuccino", "americano", "espresso", "mocha", "flat white", "macchiato", "cold brew", "tea", "hot chocolate"}
	Sizes      = []string{"small", "medium", "large", "tall", "grande", "venti"}
	Milks      = []string{"whole milk", "skim milk", "almond milk", "oat milk", "soy milk", "coconut milk", "none"}
	Extras     = []string{"whipped cream", "caramel", "vanilla", "hazelnut", "extra shot", "cinnamon", "chocolate drizzle", "sugar free syrup", "ice"}
)

// Repository persiste una orden completa y devuelve dónde quedó.
type Repository interface {
	Save(ctx context.Context, o *model.DrinkOrder) (string, error)
}

// Order es la orden en curso de UNA sesión; no se comparte entre clientes.
type Order struct {
	DrinkType string
	Size      string
	Milk      string
	Extras    []string
	Name      string
}

func (o *Order) SetDrinkType(v string) (string, error) {
	return set(&o.DrinkType, v, DrinkTypes, "drink type")
}

func (o *Order) SetSize(v string) (string, error) {
	return set(&o.Size, v, Sizes, "size")
}

// SetMilk acepta "oat" como "oat milk".
func (o *Order) SetMilk(v string) (string, error) {
	n := normalize(v)
	if n != "none" && n != "" && !strings.HasSuffix(n, " milk") && slices.Contains(Milks, n+" milk") {
		n += " milk"
	}
	return set(&o.Milk, n, Milks, "milk")
}

// SetExtras reemplaza la lista completa. Lista vacía = sin extras.
func (o *Order) SetExtras(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if !slices.Contains(Extras, n) {
			return nil, fmt.Errorf("%w: extra %q", ErrInvalidChoice, v)
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	o.Extras = out
	return out, nil
}

func (o *Order) SetName(v string) (string, error) {
	name := strings.TrimSpace(v)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidChoice)
	}
	o.Name = name
	return name, nil
}

// Missing lista los campos obligatorios que faltan (los extras son opcionales).
func (o *Order) Missing() []string {
	var missing []string
	if o.DrinkType == "" {
		missing = append(missing, "drink type")
	}
	if o.Size == "" {
		missing = append(missing, "size")
	}
	if o.Milk == "" {
		missing = append(missing, "milk type")
	}
	if o.Name == "" {
		missing = append(missing, "name")
	}
	return missing
}

func (o *Order) Complete() bool { return len(o.Missing()) == 0 }

// Save persiste la orden y deja la sesión lista para la siguiente.
func (o *Order) Save(ctx context.Context, repo Repository, now time.Time) (*model.DrinkOrder, string, error) {
	if missing := o.Missing(); len(missing) > 0 {
		return nil, "", fmt.Errorf("%w: missing %s", ErrIncompleteOrder, strings.Join(missing, ", "))
	}

	extras := make([]string, len(o.Extras))
	copy(extras, o.Extras)
	saved := &model.DrinkOrder{
		DrinkType: o.DrinkType,
		Size:      o.Size,
		Milk:      o.Milk,
		Extras:    extras,
		Name:      o.Name,
		Timestamp: now,
	}

	path, err := repo.Save(ctx, saved)
	if err != nil {
		return nil, "", err
	}
	o.Reset()
	return saved, path, nil
}

func (o *Order) Reset() {
	*o = Order{}
}

func (o *Order) Snapshot() model.DrinkOrder {
	extras := make([]string, len(o.Extras))
	copy(extras, o.Extras)
	return model.DrinkOrder{DrinkType: o.DrinkType, Size: o.Size, Milk: o.Milk, Extras: extras, Name: o.Name}
}

func set(field *string, v string, allowed []string, label string) (string, error) {
	n := normalize(v)
	if !slices.Contains(allowed, n) {
		return "", fmt.Errorf("%w: %s %q (options: %s)", ErrInvalidChoice, label, v, strings.Join(allowed, ", "))
	}
	*field = n
	return n, nil
}

func normalize(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
