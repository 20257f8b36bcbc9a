// tools.go
package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"voice-order-service/internal/dto"
	"voice-order-service/internal/middleware"
	"voice-order-service/internal/tools"
)

// ToolController expone el registry de tools a la capa de voz por HTTP.
type ToolController struct {
	Registry *tools.Registry
	Sessions *tools.Sessions
	orders   *OrderController
}

func NewToolController(reg *tools.Registry, sessions *tools.Sessions, orders *OrderController) *ToolController {
	return &ToolController{Registry: reg, Sessions: sessions, orders: orders}
}

// GET /api/tools
func (ctl *ToolController) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.Registry.List())
}

// POST /api/tools/:name: el body son los argumentos de la tool
func (ctl *ToolController) InvokeTool(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := ctl.Sessions.Get(middleware.SessionID(c))
	out, err := ctl.Registry.Invoke(c.Request.Context(), s, c.Param("name"), json.RawMessage(body))
	if err != nil {
		ctl.orders.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": out})
}

// GET /api/drink: orden del barista en curso de la sesión
func (ctl *ToolController) GetDrink(c *gin.Context) {
	sid := middleware.SessionID(c)
	o, missing := ctl.Sessions.Get(sid).DrinkState()
	if missing == nil {
		missing = []string{}
	}
	c.JSON(http.StatusOK, dto.DrinkStateResponse{
		SessionID: sid,
		DrinkType: o.DrinkType,
		Size:      o.Size,
		Milk:      o.Milk,
		Extras:    o.Extras,
		Name:      o.Name,
		Missing:   missing,
		Complete:  len(missing) == 0,
	})
}
