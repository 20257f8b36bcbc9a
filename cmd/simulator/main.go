// Command simulator recorre una conversación de ejemplo contra el registry
// de tools e imprime lo que el agente le diría al usuario.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"

	"go.uber.org/zap"

	"voice-order-service/internal/bootstrap"
	"voice-order-service/internal/catalog"
	"voice-order-service/internal/config"
	"voice-order-service/internal/logger"
	"voice-order-service/internal/repository"
	"voice-order-service/internal/service"
	"voice-order-service/internal/tools"
)

var orderIDPattern = regexp.MustCompile(`order_[\w-]+`)

type step struct {
	tool string
	args string
}

var grocerySteps = []step{
	{"greet", `{}`},
	{"add_item", `{"item_name":"Whole Wheat Bread","quantity":2}`},
	{"ingredients_for", `{"dish":"peanut butter sandwich"}`},
	{"list_cart", `{}`},
	{"place_order", `{"customer_name":"John Doe","address":"123 Demo St"}`},
}

var baristaSteps = []step{
	{"update_drink_type", `{"drink_type":"latte"}`},
	{"update_size", `{"size":"large"}`},
	{"update_milk", `{"milk":"oat"}`},
	{"update_extras", `{"extras":["caramel"]}`},
	{"update_name", `{"name":"John"}`},
	{"check_order_complete", `{}`},
	{"save_order", `{}`},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()
	repo, closeRepo, err := bootstrap.OrderRepository(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("opening order store", zap.Error(err))
	}
	defer closeRepo(ctx)
	carts, closeCarts, err := bootstrap.CartStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("opening cart store", zap.Error(err))
	}
	defer closeCarts(ctx)
	drinks, err := repository.NewFileDrinkRepository(cfg.DrinkOrdersDir)
	if err != nil {
		zl.Fatal("opening drink store", zap.Error(err))
	}

	orders := service.NewOrderService(repo, service.WithLogger(zl))
	cartService := service.NewCartService(catalog.Load(cfg.CatalogPath, zl), carts, orders, zl)

	reg := tools.NewRegistry(nil, zl)
	reg.MustRegister(tools.GroceryTools(cartService, orders)...)
	reg.MustRegister(tools.BaristaTools(drinks, tools.WithDrinkLogger(zl))...)

	s := tools.NewSession("")
	fmt.Println("== grocery session", s.ID)
	var orderID string
	for _, st := range grocerySteps {
		out := call(ctx, reg, s, st)
		if st.tool == "place_order" {
			orderID = orderIDPattern.FindString(out)
		}
	}

	if orderID != "" {
		arg := fmt.Sprintf(`{"order_id":%q}`, orderID)
		call(ctx, reg, s, step{"check_order_status", arg})
		call(ctx, reg, s, step{"mock_progress_order", arg})
		call(ctx, reg, s, step{"mock_progress_order", arg})
		call(ctx, reg, s, step{"check_order_status", arg})
	}

	fmt.Println("== barista session", s.ID)
	for _, st := range baristaSteps {
		call(ctx, reg, s, st)
	}
}

func call(ctx context.Context, reg *tools.Registry, s *tools.Session, st step) string {
	out, err := reg.Invoke(ctx, s, st.tool, json.RawMessage(st.args))
	if err != nil {
		fmt.Printf("> %s %s\n  error: %v\n", st.tool, st.args, err)
		return ""
	}
	fmt.Printf("> %s %s\n  %s\n", st.tool, st.args, out)
	return out
}
