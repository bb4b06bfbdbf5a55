package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-floor/database"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSecret = []byte("controller-secret")

func init() {
	gin.SetMode(gin.TestMode)
	utils.SilenceLoggers()
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) Publish(event string, data interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *eventLog) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

type stubQR struct{}

func (stubQR) Provision(ctx context.Context, payload string) (string, error) {
	return "http://floor.test/uploads/qrs/" + payload + ".png", nil
}

func (stubQR) Remove(string) {}

type testEnv struct {
	db     *gorm.DB
	store  *store.Store
	events *eventLog
	router *gin.Engine
}

// newTestEnv wires the controllers onto a bare engine with the same role
// guards the production router uses.
func newTestEnv(t *testing.T) *testEnv {
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
	events := &eventLog{}

	tableCtrl := NewTableController(services.NewTableService(st, events, stubQR{}))
	orderCtrl := NewOrderController(services.NewOrderService(st, events, nil), services.NewPanelService(st))
	dishCtrl := NewDishController(services.NewDishService(st, nil))
	userCtrl := NewUserController(st, testSecret, time.Hour)

	auth := middlewares.AuthMiddleware(testSecret)
	admin := middlewares.RequireRoles(models.RoleAdmin)
	floorStaff := middlewares.RequireRoles(models.RoleAdmin, models.RoleStaff)
	kitchen := middlewares.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleChef)

	r := gin.New()
	r.POST("/login", userCtrl.Login)
	r.POST("/register", auth, admin, userCtrl.Register)
	r.GET("/profile", auth, userCtrl.GetProfile)

	r.GET("/table/all", tableCtrl.GetAllTables)
	r.GET("/table/only/:id", tableCtrl.GetTable)
	r.POST("/table/scan", tableCtrl.ScanQR)
	r.GET("/table/check/:id", tableCtrl.CheckTable)
	r.PUT("/table/pay/:id", auth, floorStaff, tableCtrl.PayCheck)
	r.POST("/table/create", auth, floorStaff, tableCtrl.CreateTable)
	r.PATCH("/table/update/:id", auth, floorStaff, tableCtrl.PatchTable)
	r.DELETE("/table/delete/:id", auth, floorStaff, tableCtrl.DeleteTable)

	r.POST("/order/create", orderCtrl.CreateOrder)
	r.GET("/order/panel", auth, kitchen, orderCtrl.GetPanel)
	r.PATCH("/order/update/:id", auth, kitchen, orderCtrl.UpdateItemStatus)

	r.GET("/dish/all", dishCtrl.GetAllDishes)
	r.GET("/dish/only/:id", dishCtrl.GetDish)
	r.POST("/dish/create", auth, admin, dishCtrl.CreateDish)
	r.PATCH("/dish/update/:id", auth, admin, dishCtrl.UpdateDish)
	r.DELETE("/dish/delete/:id", auth, admin, dishCtrl.DeleteDish)

	return &testEnv{db: db, store: st, events: events, router: r}
}

type apiResponse struct {
	Status   bool            `json:"status"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Category string          `json:"category"`
	Allowed  []string        `json:"allowed"`
}

// do sends body (marshalled when not nil) and decodes the envelope.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, apiResponse) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w.Code, resp
}

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	require.NoError(t, json.Unmarshal(raw, dst), "data: %s", string(raw))
}

func token(t *testing.T, role string) string {
	tok, err := utils.GenerateToken(testSecret, time.Hour, 1, role)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) user(t *testing.T, email, password, role string) *models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Name: "Test " + role, Email: email, Password: string(hashed), Role: role}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) table(t *testing.T, number, capacity int) *models.Table {
	table := &models.Table{
		Number:   number,
		Capacity: capacity,
		Status:   models.TableAvailable,
		QRCode:   fmt.Sprintf("TABLECOD%d", number),
	}
	require.NoError(t, e.db.Create(table).Error)
	return table
}

func (e *testEnv) dish(t *testing.T, name string, price float64) *models.Dish {
	dish := &models.Dish{
		Name:        name,
		Price:       price,
		Type:        models.DishFood,
		Category:    models.CategoryMainCourse,
		IsAvailable: true,
		PrepTime:    10,
	}
	require.NoError(t, e.db.Create(dish).Error)
	return dish
}
