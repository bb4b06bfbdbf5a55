package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/metrics"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
	"gorm.io/gorm"
)

const (
	qrPayloadPrefix = "TABLECOD"
	maxNameLength   = 100
)

// TableService owns table occupancy, customer seating and the check/pay cycle.
type TableService struct {
	store       *store.Store
	broadcaster kds.Broadcaster
	qr          QRProvisioner
	gate        NotificationGate
}

func NewTableService(st *store.Store, broadcaster kds.Broadcaster, qr QRProvisioner) *TableService {
	return &TableService{
		store:       st,
		broadcaster: broadcaster,
		qr:          qr,
	}
}

type CreateTableInput struct {
	Number   int
	Capacity int
	// Status defaults to AVAILABLE when empty.
	Status string
}

// TablePatch is a partial update; nil fields are left untouched.
type TablePatch struct {
	Capacity *int
	Status   *string
}

type ScanResult struct {
	Table    models.Table    `json:"table"`
	Customer models.Customer `json:"customer"`
}

type PayResult struct {
	Order models.Order `json:"order"`
	Table models.Table `json:"table"`
}

type TableDetail struct {
	ID             uint               `json:"id"`
	Number         int                `json:"number"`
	Capacity       int                `json:"capacity"`
	Status         models.TableStatus `json:"status"`
	IsNotification bool               `json:"isNotification"`
	QRCode         string             `json:"qrCode"`
	QRCodeURL      string             `json:"qrCodeUrl"`
	Customers      []CustomerDetail   `json:"customers"`
}

type CustomerDetail struct {
	ID         uint           `json:"id"`
	Name       string         `json:"name"`
	OrderItems []CustomerItem `json:"orderItems"`
}

type CustomerItem struct {
	ID          uint               `json:"id"`
	Quantity    int                `json:"quantity"`
	Status      models.ItemStatus  `json:"status"`
	Notes       string             `json:"notes"`
	Dish        *models.Dish       `json:"dish"`
	OrderID     uint               `json:"orderId"`
	OrderStatus models.OrderStatus `json:"orderStatus"`
}

// ScanQR seats a customer at the table whose QR payload is code. The capacity
// check and the insert share one transaction with the table row locked, so
// concurrent scans can never seat more customers than the table holds.
func (s *TableService) ScanQR(ctx context.Context, code, customerName string) (result *ScanResult, err error) {
	defer func() { metrics.RecordOperation("scan_qr", err) }()

	code = strings.TrimSpace(code)
	customerName = strings.TrimSpace(customerName)
	if code == "" {
		return nil, utils.ErrValidation("qrCode is required")
	}
	if customerName == "" {
		return nil, utils.ErrValidation("nameCustomer is required")
	}
	if len([]rune(customerName)) > maxNameLength {
		return nil, utils.ErrValidation(fmt.Sprintf("nameCustomer must be at most %d characters", maxNameLength))
	}

	err = transact(ctx, s.store, s.broadcaster, func(tx *gorm.DB, out *outbox) error {
		var table models.Table
		// deleted tables keep their code, so they are found here and refused below
		if err := store.ForUpdate(tx).Where("qr_code = ?", code).First(&table).Error; err != nil {
			return notFound(err, "no table matches qr code %q", code)
		}
		if table.Deleted || !table.Status.Seatable() {
			return utils.ErrConflict("table %d is %s and cannot seat customers", table.Number, table.Status)
		}

		seated, err := seatedCount(tx, table.ID)
		if err != nil {
			return err
		}
		if seated >= int64(table.Capacity) {
			return utils.ErrCapacityExceeded("table %d has reached its capacity of %d", table.Number, table.Capacity)
		}

		customer := models.Customer{Name: customerName, TableID: table.ID, Available: true}
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}

		if seated+1 == int64(table.Capacity) && table.Status != models.TableOccupied {
			if err := tx.Model(&table).Update("status", models.TableOccupied).Error; err != nil {
				return err
			}
			table.Status = models.TableOccupied
		}

		out.add(kds.EventTableUpdated, table)
		result = &ScanResult{Table: table, Customer: customer}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":    result.Table.ID,
		"customer_id": result.Customer.ID,
		"status":      result.Table.Status,
	}).Info("customer seated")
	return result, nil
}

// CreateTable registers a table and provisions its QR image. Table numbers are
// unique across deleted tables too, which keeps QR payloads unique.
func (s *TableService) CreateTable(ctx context.Context, in CreateTableInput) (table *models.Table, err error) {
	defer func() { metrics.RecordOperation("create_table", err) }()

	status, err := validateNewTable(in)
	if err != nil {
		return nil, err
	}

	err = s.store.Read(ctx, func(db *gorm.DB) error {
		return ensureNumberFree(db, in.Number)
	})
	if err != nil {
		return nil, err
	}

	payload := fmt.Sprintf("%s%d", qrPayloadPrefix, in.Number)
	url, err := s.qr.Provision(ctx, payload)
	if err != nil {
		return nil, utils.ErrInternal("failed to provision qr code", err)
	}

	err = transact(ctx, s.store, s.broadcaster, func(tx *gorm.DB, out *outbox) error {
		if err := ensureNumberFree(tx, in.Number); err != nil {
			return err
		}
		table = &models.Table{
			Number:    in.Number,
			Capacity:  in.Capacity,
			Status:    status,
			QRCode:    payload,
			QRCodeURL: url,
		}
		if err := tx.Create(table).Error; err != nil {
			return err
		}
		out.add(kds.EventTableCreated, *table)
		return nil
	})
	if err != nil {
		s.qr.Remove(url)
		if utils.KindOf(err) == utils.KindConflict {
			return nil, utils.ErrConflict("table number %d already exists", in.Number)
		}
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"table_id": table.ID, "number": table.Number}).Info("table created")
	return table, nil
}

func validateNewTable(in CreateTableInput) (models.TableStatus, error) {
	if in.Number <= 0 {
		return "", utils.ErrValidation("number must be a positive integer")
	}
	if in.Capacity <= 0 {
		return "", utils.ErrValidation("capacity must be a positive integer")
	}
	if strings.TrimSpace(in.Status) == "" {
		return models.TableAvailable, nil
	}
	return parseOperatorStatus(in.Status)
}

// parseOperatorStatus accepts every table status an operator may set directly.
// DELETED is only reachable through DeleteTable.
func parseOperatorStatus(raw string) (models.TableStatus, error) {
	allowed := []models.TableStatus{models.TableAvailable, models.TableOccupied, models.TableReserved, models.TableMaintenance}
	status, err := models.ParseTableStatus(raw)
	if err != nil || status == models.TableDeleted {
		values := models.EnumValues(allowed)
		return "", utils.ErrValidation(
			fmt.Sprintf("invalid table status %q, must be one of: %s", raw, strings.Join(values, ", ")),
			values...,
		)
	}
	return status, nil
}

func ensureNumberFree(db *gorm.DB, number int) error {
	var n int64
	if err := db.Model(&models.Table{}).Where("number = ?", number).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return utils.ErrConflict("table number %d already exists", number)
	}
	return nil
}

func (p TablePatch) validate() (*models.TableStatus, error) {
	if p.Capacity == nil && p.Status == nil {
		return nil, utils.ErrValidation("at least one field must be provided (capacity or status)")
	}
	if p.Capacity != nil && *p.Capacity <= 0 {
		return nil, utils.ErrValidation("capacity must be a positive integer")
	}
	if p.Status == nil {
		return nil, nil
	}
	status, err := parseOperatorStatus(*p.Status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// PatchTable applies an operator edit. Lowering the capacity below the number
// of seated customers is refused; the notification latch is never touched.
func (s *TableService) PatchTable(ctx context.Context, id uint, patch TablePatch) (table *models.Table, err error) {
	defer func() { metrics.RecordOperation("patch_table", err) }()

	status, err := patch.validate()
	if err != nil {
		return nil, err
	}

	err = transact(ctx, s.store, s.broadcaster, func(tx *gorm.DB, out *outbox) error {
		t, err := activeTable(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.Capacity != nil {
			seated, err := seatedCount(tx, t.ID)
			if err != nil {
				return err
			}
			if int64(*patch.Capacity) < seated {
				return utils.ErrConflict("capacity %d is below the %d customers seated at table %d", *patch.Capacity, seated, t.Number)
			}
			updates["capacity"] = *patch.Capacity
		}
		if status != nil {
			updates["status"] = *status
		}

		if err := tx.Model(t).Updates(updates).Error; err != nil {
			return err
		}
		if patch.Capacity != nil {
			t.Capacity = *patch.Capacity
		}
		if status != nil {
			t.Status = *status
		}

		out.add(kds.EventTableUpdated, *t)
		table = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// DeleteTable soft-deletes a table that has no open orders.
func (s *TableService) DeleteTable(ctx context.Context, id uint) (table *models.Table, err error) {
	defer func() { metrics.RecordOperation("delete_table", err) }()

	err = transact(ctx, s.store, s.broadcaster, func(tx *gorm.DB, out *outbox) error {
		var t models.Table
		if err := store.ForUpdate(tx).First(&t, id).Error; err != nil {
			return notFound(err, "table %d not found", id)
		}
		if t.Deleted {
			return utils.ErrAlreadyDeleted("table %d has already been deleted", t.Number)
		}

		var open int64
		err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status NOT IN ?", t.ID, models.ClosedOrderStatuses).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return utils.ErrConflict("table %d cannot be deleted because it has %d active orders", t.Number, open)
		}

		if err := tx.Model(&t).Updates(map[string]interface{}{
			"deleted": true,
			"status":  models.TableDeleted,
		}).Error; err != nil {
			return err
		}
		t.Deleted = true
		t.Status = models.TableDeleted

		out.add(kds.EventTableDeleted, map[string]uint{"id": t.ID})
		table = &t
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithField("table_id", id).Info("table deleted")
	return table, nil
}

// CheckTable promotes the table's oldest open order to READY, returns its
// READY items and raises the ready notification once.
func (s *TableService) CheckTable(ctx context.Context, id uint) (views []models.ItemView, err error) {
	defer func() { metrics.RecordOperation("check_table", err) }()

	err = transact(ctx, s.store, s.broadcaster, func(tx *gorm.DB, out *outbox) error {
		views = []models.ItemView{}

		table, err := activeTable(tx, id)
		if err != nil {
			return err
		}

		var order models.Order
		err = tx.Where("table_id = ? AND status IN ?", table.ID, models.CheckableOrderStatuses).
			Order("created_at ASC, id ASC").
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if order.Status == models.OrderPending {
			if err := tx.Model(&order).Update("status", models.OrderReady).Error; err != nil {
				return err
			}
			order.Status = models.OrderReady
		}

		var items []models.OrderItem
		err = tx.Preload("Dish").Preload("Customer").
			Where("order_id = ? AND status = ?", order.ID, models.ItemReady).
			Order("created_at ASC, id ASC").
			Find(&items).Error
		if err != nil {
			return err
		}
		for _, item := range items {
			views = append(views, models.NewItemView(table, item.Customer, item, item.Dish))
		}

		flipped, err := s.gate.Trip(tx, table)
		if err != nil {
			return err
		}
		if flipped {
			out.add(kds.EventTableUpdated, *table)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// PayCheck settles the table's oldest READY order: the order becomes PAID, the
// table AVAILABLE with its latch cleared, and every seated customer leaves.
func (s *TableService) PayCheck(ctx context.Context, tableID uint) (result *PayResult, err error) {
	defer func() { metrics.RecordOperation("pay_check", err) }()

	err = transact(ctx, s.store, s.broadcaster, func(tx *gorm.DB, out *outbox) error {
		table, err := activeTable(tx, tableID)
		if err != nil {
			return err
		}

		var order models.Order
		err = tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
			Where("table_id = ? AND status = ?", table.ID, models.OrderReady).
			Order("created_at ASC, id ASC").
			First(&order).Error
		if err != nil {
			return notFound(err, "no READY order for table %d", table.Number)
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderPaid).Error; err != nil {
			return err
		}
		order.Status = models.OrderPaid

		if err := tx.Model(table).Update("status", models.TableAvailable).Error; err != nil {
			return err
		}
		table.Status = models.TableAvailable
		if err := s.gate.Clear(tx, table); err != nil {
			return err
		}

		err = tx.Model(&models.Customer{}).
			Where("table_id = ? AND available = ?", table.ID, true).
			Update("available", false).Error
		if err != nil {
			return err
		}

		for _, item := range order.Items {
			out.add(kds.EventOrderItemDeleted, item.ID)
		}
		out.add(kds.EventTableUpdated, *table)

		result = &PayResult{Order: order, Table: *table}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id": tableID,
		"order_id": result.Order.ID,
		"total":    result.Order.Total,
	}).Info("check paid")
	return result, nil
}

// ListTables returns the non-deleted tables ordered by number, optionally
// filtered by status.
func (s *TableService) ListTables(ctx context.Context, status string) ([]models.Table, error) {
	var filter models.TableStatus
	if strings.TrimSpace(status) != "" {
		parsed, err := models.ParseTableStatus(status)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}

	tables := []models.Table{}
	err := s.store.Read(ctx, func(db *gorm.DB) error {
		q := db.Where("deleted = ?", false)
		if filter != "" {
			q = q.Where("status = ?", filter)
		}
		return q.Order("number ASC").Find(&tables).Error
	})
	return tables, err
}

func (s *TableService) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	err := s.store.Read(ctx, func(db *gorm.DB) error {
		err := db.Where("id = ? AND deleted = ?", id, false).First(&table).Error
		return notFound(err, "table %d not found", id)
	})
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// GetTableItems flattens every item of the table's PENDING and READY orders.
func (s *TableService) GetTableItems(ctx context.Context, id uint) ([]models.ItemView, error) {
	var items []models.OrderItem
	err := s.store.Read(ctx, func(db *gorm.DB) error {
		if err := db.Where("id = ? AND deleted = ?", id, false).First(&models.Table{}).Error; err != nil {
			return notFound(err, "table %d not found", id)
		}
		return itemsWithRelations(db).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.table_id = ? AND orders.status IN ?", id, models.CheckableOrderStatuses).
			Order("order_items.created_at ASC, order_items.id ASC").
			Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return projectItems(items), nil
}

// GetTableDetail returns the table with its seated customers and the items
// each of them has in PENDING or READY orders.
func (s *TableService) GetTableDetail(ctx context.Context, id uint) (*TableDetail, error) {
	var (
		table     models.Table
		customers []models.Customer
		items     []models.OrderItem
	)
	err := s.store.Read(ctx, func(db *gorm.DB) error {
		if err := db.Where("id = ? AND deleted = ?", id, false).First(&table).Error; err != nil {
			return notFound(err, "table %d not found", id)
		}
		if err := db.Where("table_id = ? AND available = ?", id, true).Order("id ASC").Find(&customers).Error; err != nil {
			return err
		}
		return db.Preload("Dish").Preload("Order").
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.table_id = ? AND orders.status IN ?", id, models.CheckableOrderStatuses).
			Order("order_items.created_at ASC, order_items.id ASC").
			Find(&items).Error
	})
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[uint][]CustomerItem)
	for _, item := range items {
		ci := CustomerItem{
			ID:       item.ID,
			Quantity: item.Quantity,
			Status:   item.Status,
			Notes:    item.Notes,
			Dish:     item.Dish,
			OrderID:  item.OrderID,
		}
		if item.Order != nil {
			ci.OrderStatus = item.Order.Status
		}
		byCustomer[item.CustomerID] = append(byCustomer[item.CustomerID], ci)
	}

	detail := &TableDetail{
		ID:             table.ID,
		Number:         table.Number,
		Capacity:       table.Capacity,
		Status:         table.Status,
		IsNotification: table.IsNotification,
		QRCode:         table.QRCode,
		QRCodeURL:      table.QRCodeURL,
		Customers:      make([]CustomerDetail, 0, len(customers)),
	}
	for _, c := range customers {
		orderItems := byCustomer[c.ID]
		if orderItems == nil {
			orderItems = []CustomerItem{}
		}
		detail.Customers = append(detail.Customers, CustomerDetail{ID: c.ID, Name: c.Name, OrderItems: orderItems})
	}
	return detail, nil
}
