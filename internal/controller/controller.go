package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voice-order-service/internal/dto"
	"voice-order-service/internal/middleware"
	"voice-order-service/internal/model"
	"voice-order-service/internal/service"
)

type OrderController struct {
	Carts  *service.CartService
	Orders *service.OrderService
	log    *zap.Logger
}

func NewOrderController(carts *service.CartService, orders *service.OrderService, log *zap.Logger) *OrderController {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderController{Carts: carts, Orders: orders, log: log}
}

// GET /api/catalog
func (ctl *OrderController) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.Carts.Catalog().Items())
}

// GET /api/cart
func (ctl *OrderController) GetCart(c *gin.Context) {
	cart, err := ctl.Carts.Get(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// POST /api/cart/add
func (ctl *OrderController) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	sid := middleware.SessionID(c)
	if _, err := ctl.Carts.AddItem(ctx, sid, req.ItemID, req.Quantity); err != nil {
		ctl.fail(c, err)
		return
	}
	cart, err := ctl.Carts.Get(ctx, sid)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cart": cart})
}

// POST /api/cart/ingredients
func (ctl *OrderController) AddIngredients(c *gin.Context) {
	var req dto.IngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, cart, err := ctl.Carts.AddRecipe(c.Request.Context(), middleware.SessionID(c), req.Dish, req.Servings)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	names := make([]string, 0, len(added))
	for _, it := range added {
		names = append(names, it.Name)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "added": names, "cart": cart})
}

// POST /api/cart/remove
func (ctl *OrderController) RemoveItem(c *gin.Context) {
	var req dto.RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	sid := middleware.SessionID(c)
	if _, err := ctl.Carts.RemoveItem(ctx, sid, req.ItemID); err != nil {
		ctl.fail(c, err)
		return
	}
	cart, err := ctl.Carts.Get(ctx, sid)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cart": cart})
}

// POST /api/cart/update: cantidad <= 0 quita el producto
func (ctl *OrderController) UpdateQuantity(c *gin.Context) {
	var req dto.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cart, err := ctl.Carts.UpdateQuantity(c.Request.Context(), middleware.SessionID(c), req.ItemID, req.Quantity)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cart": cart})
}

// POST /api/cart/place
func (ctl *OrderController) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	// body opcional: sin body se usa Guest y dirección vacía
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := ctl.Carts.PlaceOrder(c.Request.Context(), middleware.SessionID(c), req.CustomerName, req.Address)
	if errors.Is(err, service.ErrCartNotCleared) {
		// la orden existe aunque el carrito no se vació
		c.JSON(http.StatusCreated, dto.PlaceOrderResponse{OrderID: o.ID, Total: o.Total, Warning: "cart was not cleared"})
		return
	}
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.PlaceOrderResponse{OrderID: o.ID, Total: o.Total})
}

// GET /api/orders
func (ctl *OrderController) ListOrders(c *gin.Context) {
	ids, err := ctl.Orders.ListIDs(c.Request.Context())
	if err != nil {
		ctl.fail(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, ids)
}

// GET /api/order/:orderId: acepta id exacto, con .json o un prefijo único
func (ctl *OrderController) GetOrder(c *gin.Context) {
	o, err := ctl.Orders.Get(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// POST /api/order/:orderId/progress: requiere admin key si está configurada
func (ctl *OrderController) ProgressOrder(c *gin.Context) {
	var req dto.ProgressRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := ctl.Orders.Advance(c.Request.Context(), c.Param("orderId"), req.Status)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProgressResponse{OrderID: o.ID, NewStatus: o.Status})
}

// bindOptionalJSON no depende de Content-Length: un body chunked también se
// lee. Un body vacío deja req en su valor cero.
func bindOptionalJSON(c *gin.Context, req any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (ctl *OrderController) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		ctl.log.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
	}
	body := gin.H{"error": err.Error()}
	var amb *service.AmbiguousOrderIDError
	if errors.As(err, &amb) {
		body["candidates"] = amb.Candidates
	}
	c.JSON(code, body)
}

// statusFor traduce el tipo de error de dominio a código HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidState), errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
