// Package services holds the floor lifecycle managers. Every mutating
// operation runs as one store transaction and publishes its events only after
// that transaction committed.
package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
	"gorm.io/gorm"
)

// QRProvisioner renders a QR payload and stores the image, returning its URL.
type QRProvisioner interface {
	Provision(ctx context.Context, payload string) (string, error)
	Remove(url string)
}

type pendingEvent struct {
	name string
	data interface{}
}

// outbox collects the events of one transaction attempt.
type outbox struct {
	events []pendingEvent
}

func (o *outbox) add(name string, data interface{}) {
	o.events = append(o.events, pendingEvent{name: name, data: data})
}

func (o *outbox) flush(b kds.Broadcaster) {
	if b == nil {
		return
	}
	for _, e := range o.events {
		b.Publish(e.name, e.data)
	}
}

// transact runs fn in a transaction. The outbox is rebuilt on every attempt and
// flushed once the transaction committed, so a rolled back or retried attempt
// never announces anything.
func transact(ctx context.Context, st *store.Store, b kds.Broadcaster, fn func(tx *gorm.DB, out *outbox) error) error {
	var out *outbox
	err := st.WithTransaction(ctx, func(tx *gorm.DB) error {
		out = &outbox{}
		return fn(tx, out)
	})
	if err != nil {
		return err
	}
	out.flush(b)
	return nil
}

// notFound turns a missing row into a NotFound with a useful message and
// passes every other error through.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrNotFound(format, args...)
	}
	return err
}

// activeTable loads a non-deleted table, locking its row where the dialect supports it.
func activeTable(tx *gorm.DB, id uint) (*models.Table, error) {
	var table models.Table
	err := store.ForUpdate(tx).Where("id = ? AND deleted = ?", id, false).First(&table).Error
	if err != nil {
		return nil, notFound(err, "table %d not found", id)
	}
	return &table, nil
}

func seatedCount(tx *gorm.DB, tableID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.Customer{}).
		Where("table_id = ? AND available = ?", tableID, true).
		Count(&n).Error
	return n, err
}

// itemsWithRelations preloads everything the flattened projection needs.
func itemsWithRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Dish").Preload("Customer").Preload("Order.Table")
}

func projectItems(items []models.OrderItem) []models.ItemView {
	views := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, projectItem(item))
	}
	return views
}

func projectItem(item models.OrderItem) models.ItemView {
	var table *models.Table
	if item.Order != nil {
		table = item.Order.Table
	}
	return models.NewItemView(table, item.Customer, item, item.Dish)
}
