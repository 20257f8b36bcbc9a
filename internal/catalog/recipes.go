package catalog

import (
	"fmt"
	"sort"
	"strings"

	"voice-order-service/internal/model"
)

var ErrRecipeNotFound = fmt.Errorf("receta desconocida: %w", model.ErrNotFound)

// Platos -> ids de ingredientes, en orden.
var recipes = map[string][]string{
	"peanut butter sandwich": {"bread_whole_wheat", "peanut_butter"},
	"pasta for two":          {"pasta_spaghetti", "pasta_sauce", "olive_oil"},
	"omelette":               {"eggs_large", "milk_2l", "cheddar_cheese"},
}

// Recipe devuelve los ids de ingredientes del plato (sin importar mayúsculas).
func Recipe(dish string) ([]string, error) {
	ids, ok := recipes[strings.ToLower(strings.TrimSpace(dish))]
	if !ok {
		return nil, ErrRecipeNotFound
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func Dishes() []string {
	out := make([]string, 0, len(recipes))
	for d := range recipes {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
