package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type TableController struct {
	Tables *services.TableService
}

func NewTableController(tables *services.TableService) *TableController {
	return &TableController{Tables: tables}
}

// GetAllTables -> GET /table/all?status=
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.ListTables(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables fetched successfully", tables)
}

// GetTable -> GET /table/only/:id, with ?simple=true for the flattened items
// or ?includeDetails=true for customers and their items.
func (tc *TableController) GetTable(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()

	switch {
	case c.Query("simple") == "true":
		items, err := tc.Tables.GetTableItems(ctx, id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Table data in simple format", items)
	case c.Query("includeDetails") == "true":
		detail, err := tc.Tables.GetTableDetail(ctx, id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Table with all details", detail)
	default:
		table, err := tc.Tables.GetTable(ctx, id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Table without details", table)
	}
}

// ScanQR -> POST /table/scan
func (tc *TableController) ScanQR(c *gin.Context) {
	var req struct {
		QRCode       string `json:"qrCode"`
		NameCustomer string `json:"nameCustomer"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	res, err := tc.Tables.ScanQR(c.Request.Context(), req.QRCode, req.NameCustomer)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer assigned to table", res)
}

// CreateTable -> POST /table/create
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number   int    `json:"number"`
		Capacity int    `json:"capacity"`
		Status   string `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	table, err := tc.Tables.CreateTable(c.Request.Context(), services.CreateTableInput{
		Number:   req.Number,
		Capacity: req.Capacity,
		Status:   req.Status,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// PatchTable -> PATCH /table/update/:id
func (tc *TableController) PatchTable(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req struct {
		Capacity *int    `json:"capacity"`
		Status   *string `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	table, err := tc.Tables.PatchTable(c.Request.Context(), id, services.TablePatch{
		Capacity: req.Capacity,
		Status:   req.Status,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated successfully", table)
}

// DeleteTable -> DELETE /table/delete/:id
func (tc *TableController) DeleteTable(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	table, err := tc.Tables.DeleteTable(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted successfully", table)
}

// CheckTable -> GET /table/check/:id
func (tc *TableController) CheckTable(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	items, err := tc.Tables.CheckTable(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if len(items) == 0 {
		utils.RespondJSON(c, http.StatusOK, "No ready items for this table", items)
		return
	}
	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("Items table %d", id), items)
}

// PayCheck -> PUT /table/pay/:id
func (tc *TableController) PayCheck(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	res, err := tc.Tables.PayCheck(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order paid, table released", res)
}
