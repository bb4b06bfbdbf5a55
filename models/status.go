package models

import (
	"fmt"
	"strings"

	"github.com/yeremiapane/restaurant-floor/utils"
)

type TableStatus string

const (
	TableAvailable   TableStatus = "AVAILABLE"
	TableOccupied    TableStatus = "OCCUPIED"
	TableReserved    TableStatus = "RESERVED"
	TableMaintenance TableStatus = "MAINTENANCE"
	TableDeleted     TableStatus = "DELETED"
)

var TableStatuses = []TableStatus{TableAvailable, TableOccupied, TableReserved, TableMaintenance, TableDeleted}

// Seatable reports whether a QR scan may seat a customer at a table in this status.
func (s TableStatus) Seatable() bool {
	return s == TableAvailable || s == TableOccupied
}

type OrderStatus string

const (
	OrderPending       OrderStatus = "PENDING"
	OrderInPreparation OrderStatus = "IN_PREPARATION"
	OrderReady         OrderStatus = "READY"
	OrderDelivered     OrderStatus = "DELIVERED"
	OrderCancelled     OrderStatus = "CANCELLED"
	OrderPaid          OrderStatus = "PAID"
)

var OrderStatuses = []OrderStatus{OrderPending, OrderInPreparation, OrderReady, OrderDelivered, OrderCancelled, OrderPaid}

// ClosedOrderStatuses are the statuses that no longer block a table deletion.
var ClosedOrderStatuses = []OrderStatus{OrderDelivered, OrderCancelled, OrderPaid}

// CheckableOrderStatuses are the statuses CheckTable looks at.
var CheckableOrderStatuses = []OrderStatus{OrderPending, OrderReady}

// Closed is true for DELIVERED, CANCELLED and PAID.
func (s OrderStatus) Closed() bool {
	for _, c := range ClosedOrderStatuses {
		if s == c {
			return true
		}
	}
	return false
}

// Final is true for the immutable statuses.
func (s OrderStatus) Final() bool {
	return s == OrderPaid || s == OrderCancelled
}

type ItemStatus string

const (
	ItemPending       ItemStatus = "PENDING"
	ItemInPreparation ItemStatus = "IN_PREPARATION"
	ItemReady         ItemStatus = "READY"
	ItemCancelled     ItemStatus = "CANCELLED"
)

var ItemStatuses = []ItemStatus{ItemPending, ItemInPreparation, ItemReady, ItemCancelled}

// CanBecome enforces the kitchen pipeline: READY only moves to CANCELLED and
// CANCELLED never moves. Re-applying the current status is allowed.
func (s ItemStatus) CanBecome(next ItemStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ItemReady:
		return next == ItemCancelled
	case ItemCancelled:
		return false
	default:
		return true
	}
}

type DishType string

const (
	DishFood    DishType = "FOOD"
	DishDrink   DishType = "DRINK"
	DishDessert DishType = "DESSERT"
	DishSnack   DishType = "SNACK"
)

var DishTypes = []DishType{DishFood, DishDrink, DishDessert, DishSnack}

type DishCategory string

const (
	CategoryAppetizer  DishCategory = "APPETIZER"
	CategoryMainCourse DishCategory = "MAIN_COURSE"
	CategorySide       DishCategory = "SIDE"
	CategoryBeverage   DishCategory = "BEVERAGE"
	CategoryDessert    DishCategory = "DESSERT"
)

var DishCategories = []DishCategory{CategoryAppetizer, CategoryMainCourse, CategorySide, CategoryBeverage, CategoryDessert}

func ParseTableStatus(raw string) (TableStatus, error) {
	return parseEnum("table status", raw, TableStatuses)
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	return parseEnum("order status", raw, OrderStatuses)
}

func ParseItemStatus(raw string) (ItemStatus, error) {
	return parseEnum("item status", raw, ItemStatuses)
}

func ParseDishType(raw string) (DishType, error) {
	return parseEnum("dish type", raw, DishTypes)
}

func ParseDishCategory(raw string) (DishCategory, error) {
	return parseEnum("dish category", raw, DishCategories)
}

// parseEnum trims and upper-cases raw, then checks it against allowed. The
// returned validation error lists every accepted value.
func parseEnum[T ~string](name, raw string, allowed []T) (T, error) {
	normalized := T(strings.ToUpper(strings.TrimSpace(raw)))
	for _, v := range allowed {
		if v == normalized {
			return v, nil
		}
	}
	values := EnumValues(allowed)
	return "", utils.ErrValidation(
		fmt.Sprintf("invalid %s %q, must be one of: %s", name, raw, strings.Join(values, ", ")),
		values...,
	)
}

func EnumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
