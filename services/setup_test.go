package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-floor/database"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	utils.SilenceLoggers()
}

type recordedEvent struct {
	Name string
	Data interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Name: event, Data: data})
}

func (r *recorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

func (r *recorder) count(name string) int {
	n := 0
	for _, e := range r.all() {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fakeQR struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeQR) Provision(ctx context.Context, payload string) (string, error) {
	return fmt.Sprintf("http://floor.test/uploads/qrs/%s.png", payload), nil
}

func (f *fakeQR) Remove(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, url)
}

type fixture struct {
	db     *gorm.DB
	store  *store.Store
	events *recorder
	qr     *fakeQR
	tables *TableService
	orders *OrderService
	panel  *PanelService
	dishes *DishService
}

func newFixture(t *testing.T) *fixture {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	st := store.New(db, store.Options{Timeout: 5 * time.Second, Retries: 2})
	events := &recorder{}
	qr := &fakeQR{}
	return &fixture{
		db:     db,
		store:  st,
		events: events,
		qr:     qr,
		tables: NewTableService(st, events, qr),
		orders: NewOrderService(st, events, GormDishCatalog{}),
		panel:  NewPanelService(st),
		dishes: NewDishService(st, nil),
	}
}

func (f *fixture) table(t *testing.T, number, capacity int, status models.TableStatus) *models.Table {
	table := &models.Table{
		Number:   number,
		Capacity: capacity,
		Status:   status,
		QRCode:   fmt.Sprintf("TABLECOD%d", number),
	}
	require.NoError(t, f.db.Create(table).Error)
	return table
}

func (f *fixture) dish(t *testing.T, name string, price float64) *models.Dish {
	dish := &models.Dish{
		Name:        name,
		Price:       price,
		Type:        models.DishFood,
		Category:    models.CategoryMainCourse,
		IsAvailable: true,
		PrepTime:    10,
	}
	require.NoError(t, f.db.Create(dish).Error)
	return dish
}

func (f *fixture) customer(t *testing.T, table *models.Table, name string) *models.Customer {
	c := &models.Customer{Name: name, TableID: table.ID, Available: true}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

// order inserts an order with a single item directly, bypassing the service.
func (f *fixture) order(t *testing.T, table *models.Table, customer *models.Customer, dish *models.Dish, status models.OrderStatus, createdAt time.Time) *models.Order {
	order := &models.Order{
		Code:      models.GenerateOrderCode(createdAt),
		Status:    status,
		TableID:   table.ID,
		CreatedAt: createdAt,
	}
	require.NoError(t, f.db.Create(order).Error)
	require.NoError(t, f.db.Create(&models.OrderCustomer{OrderID: order.ID, CustomerID: customer.ID}).Error)

	item := &models.OrderItem{
		OrderID:    order.ID,
		DishID:     dish.ID,
		Quantity:   1,
		Status:     models.ItemPending,
		CustomerID: customer.ID,
		CreatedAt:  createdAt,
	}
	require.NoError(t, f.db.Create(item).Error)
	order.Items = []models.OrderItem{*item}
	return order
}

func (f *fixture) reload(t *testing.T, table *models.Table) models.Table {
	var fresh models.Table
	require.NoError(t, f.db.First(&fresh, table.ID).Error)
	return fresh
}

func (f *fixture) seated(t *testing.T, table *models.Table) int64 {
	var n int64
	require.NoError(t, f.db.Model(&models.Customer{}).Where("table_id = ? AND available = ?", table.ID, true).Count(&n).Error)
	return n
}
