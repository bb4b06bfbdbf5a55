package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type OrderController struct {
	Orders *services.OrderService
	Panel  *services.PanelService
}

func NewOrderController(orders *services.OrderService, panel *services.PanelService) *OrderController {
	return &OrderController{Orders: orders, Panel: panel}
}

// GetPanel -> GET /order/panel?active=true
func (oc *OrderController) GetPanel(c *gin.Context) {
	items, err := oc.Panel.Panel(c.Request.Context(), services.PanelFilter{
		ActiveOnly: c.Query("active") == "true",
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen panel", items)
}

// CreateOrder -> POST /order/create
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		TableID    uint `json:"id_table"`
		CustomerID uint `json:"id_customer"`
		Dishes     []struct {
			ID       uint   `json:"id"`
			Quantity int    `json:"quantity"`
			Notes    string `json:"notes"`
		} `json:"dishes"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	in := services.CreateOrderInput{TableID: req.TableID, CustomerID: req.CustomerID}
	for _, d := range req.Dishes {
		in.Items = append(in.Items, services.OrderLine{DishID: d.ID, Quantity: d.Quantity, Notes: d.Notes})
	}

	res, err := oc.Orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created successfully", res)
}

// UpdateItemStatus -> PATCH /order/update/:id
func (oc *OrderController) UpdateItemStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	view, err := oc.Orders.UpdateItemStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order item updated", view)
}
