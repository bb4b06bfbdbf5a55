package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/metrics"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
	"gorm.io/gorm"
)

const maxNotesLength = 255

// OrderService owns order creation and the kitchen pipeline of order items.
type OrderService struct {
	store       *store.Store
	broadcaster kds.Broadcaster
	dishes      DishCatalog
}

func NewOrderService(st *store.Store, broadcaster kds.Broadcaster, dishes DishCatalog) *OrderService {
	if dishes == nil {
		dishes = GormDishCatalog{}
	}
	return &OrderService{
		store:       st,
		broadcaster: broadcaster,
		dishes:      dishes,
	}
}

type OrderLine struct {
	DishID   uint
	Quantity int
	Notes    string
}

type CreateOrderInput struct {
	TableID    uint
	CustomerID uint
	Items      []OrderLine
}

type OrderResult struct {
	Order models.Order      `json:"order"`
	Items []models.ItemView `json:"items"`
}

func (in CreateOrderInput) validate() error {
	if in.TableID == 0 {
		return utils.ErrValidation("id_table is required")
	}
	if in.CustomerID == 0 {
		return utils.ErrValidation("id_customer is required")
	}
	if len(in.Items) == 0 {
		return utils.ErrValidation("at least one dish is required")
	}
	for i, line := range in.Items {
		if line.DishID == 0 {
			return utils.ErrValidation(fmt.Sprintf("dishes[%d].id is required", i))
		}
		if line.Quantity <= 0 {
			return utils.ErrValidation(fmt.Sprintf("dishes[%d].quantity must be a positive integer", i))
		}
		if utf8.RuneCountInString(line.Notes) > maxNotesLength {
			return utils.ErrValidation(fmt.Sprintf("dishes[%d].notes must be at most %d characters", i, maxNotesLength))
		}
	}
	return nil
}

// CreateOrder opens a new order for a seated customer with one PENDING item
// per line. Items and total are written in the same transaction; one
// order_item_created event per item follows the commit.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (result *OrderResult, err error) {
	defer func() { metrics.RecordOperation("create_order", err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}

	err = transact(ctx, s.store, s.broadcaster, func(tx *gorm.DB, out *outbox) error {
		table, err := activeTable(tx, in.TableID)
		if err != nil {
			return err
		}

		var customer models.Customer
		err = tx.Where("id = ? AND table_id = ? AND available = ?", in.CustomerID, table.ID, true).First(&customer).Error
		if err != nil {
			return notFound(err, "customer %d is not seated at table %d", in.CustomerID, table.Number)
		}

		ids := make([]uint, 0, len(in.Items))
		for _, line := range in.Items {
			ids = append(ids, line.DishID)
		}
		dishes, err := s.dishes.FindByIDs(tx, ids)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, dishes); len(missing) > 0 {
			return utils.ErrNotFound("dishes not found: %s", joinIDs(missing))
		}

		order := models.Order{
			Code:    models.GenerateOrderCode(time.Now()),
			Status:  models.OrderPending,
			TableID: table.ID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.OrderCustomer{OrderID: order.ID, CustomerID: customer.ID}).Error; err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			items = append(items, models.OrderItem{
				OrderID:    order.ID,
				DishID:     line.DishID,
				Quantity:   line.Quantity,
				Status:     models.ItemPending,
				Notes:      strings.TrimSpace(line.Notes),
				CustomerID: customer.ID,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		// the total comes from the rows just written, read back in this transaction
		var created []models.OrderItem
		if err := tx.Preload("Dish").Where("order_id = ?", order.ID).Order("id ASC").Find(&created).Error; err != nil {
			return err
		}
		total := 0.0
		for _, item := range created {
			if item.Dish != nil {
				total += item.Dish.Price * float64(item.Quantity)
			}
		}
		total = math.Round(total*100) / 100
		if err := tx.Model(&order).Update("total", total).Error; err != nil {
			return err
		}
		order.Total = total

		views := make([]models.ItemView, 0, len(created))
		for _, item := range created {
			view := models.NewItemView(table, &customer, item, item.Dish)
			views = append(views, view)
			out.add(kds.EventOrderItemCreated, view)
		}

		result = &OrderResult{Order: order, Items: views}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id": in.TableID,
		"order_id": result.Order.ID,
		"items":    len(result.Items),
		"total":    result.Order.Total,
	}).Info("order created")
	return result, nil
}

// UpdateItemStatus moves one item through the kitchen pipeline. Items never
// leave READY except to CANCELLED, never leave CANCELLED, and items of PAID or
// CANCELLED orders are frozen.
func (s *OrderService) UpdateItemStatus(ctx context.Context, itemID uint, rawStatus string) (view *models.ItemView, err error) {
	defer func() { metrics.RecordOperation("update_item_status", err) }()

	next, err := models.ParseItemStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	err = transact(ctx, s.store, s.broadcaster, func(tx *gorm.DB, out *outbox) error {
		var item models.OrderItem
		if err := itemsWithRelations(store.ForUpdate(tx)).First(&item, itemID).Error; err != nil {
			return notFound(err, "order item %d not found", itemID)
		}

		if item.Order != nil && item.Order.Status.Final() {
			return utils.ErrConflict("order %d is %s and can no longer change", item.OrderID, item.Order.Status)
		}
		if !item.Status.CanBecome(next) {
			return utils.ErrConflict("order item %d cannot move from %s to %s", item.ID, item.Status, next)
		}

		if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).Update("status", next).Error; err != nil {
			return err
		}
		item.Status = next

		v := projectItem(item)
		out.add(kds.EventOrderItemUpdated, v)
		view = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_item_id": itemID,
		"status":        next,
	}).Info("order item updated")
	return view, nil
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
