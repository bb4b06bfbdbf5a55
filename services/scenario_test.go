package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// A two seat table goes through a full service: seating, overflow, ordering,
// check and payment.
func TestFloorServiceCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	table, err := f.tables.CreateTable(ctx, CreateTableInput{Number: 21, Capacity: 2, Status: "AVAILABLE"})
	require.NoError(t, err)
	soup := f.dish(t, "Soup", 6)

	alice, err := f.tables.ScanQR(ctx, table.QRCode, "Alice")
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, alice.Table.Status)

	bob, err := f.tables.ScanQR(ctx, table.QRCode, "Bob")
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, bob.Table.Status)

	_, err = f.tables.ScanQR(ctx, table.QRCode, "Carol")
	assert.Equal(t, utils.KindCapacityExceeded, utils.KindOf(err))

	order, err := f.orders.CreateOrder(ctx, CreateOrderInput{
		TableID:    table.ID,
		CustomerID: alice.Customer.ID,
		Items:      []OrderLine{{DishID: soup.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 6.0, order.Order.Total)

	_, err = f.orders.UpdateItemStatus(ctx, order.Items[0].OrderItemID, "READY")
	require.NoError(t, err)

	f.events.reset()
	views, err := f.tables.CheckTable(ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Alice", views[0].CustomerName)
	assert.True(t, f.reload(t, table).IsNotification)
	assert.Equal(t, 1, f.events.count(kds.EventTableUpdated))

	f.events.reset()
	paid, err := f.tables.PayCheck(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, paid.Order.Status)

	fresh := f.reload(t, table)
	assert.Equal(t, models.TableAvailable, fresh.Status)
	assert.False(t, fresh.IsNotification)

	var customers []models.Customer
	require.NoError(t, f.db.Where("table_id = ?", table.ID).Find(&customers).Error)
	require.Len(t, customers, 2)
	for _, c := range customers {
		assert.False(t, c.Available, c.Name)
	}

	assert.Equal(t, []recordedEvent{
		{Name: kds.EventOrderItemDeleted, Data: order.Items[0].OrderItemID},
		{Name: kds.EventTableUpdated, Data: paid.Table},
	}, f.events.all())

	// the table is free again for the next guests
	_, err = f.tables.ScanQR(ctx, table.QRCode, "Dave")
	require.NoError(t, err)

	// and can be deleted once nothing is open on it
	_, err = f.tables.DeleteTable(ctx, table.ID)
	require.NoError(t, err)
}
