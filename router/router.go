package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/restaurant-floor/config"
	"github.com/yeremiapane/restaurant-floor/controllers"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// Dependencies is everything the HTTP layer needs; main builds it once.
type Dependencies struct {
	Config *config.Config
	Store  *store.Store
	Hub    *kds.Hub
	Tables *services.TableService
	Orders *services.OrderService
	Panel  *services.PanelService
	Dishes *services.DishService
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	secret := []byte(cfg.JWTSecret)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	// QR images written by the table manager
	r.Static(strings.TrimSuffix(middlewares.UploadsPrefix, "/"), cfg.UploadDir)

	userCtrl := controllers.NewUserController(deps.Store, secret, cfg.JWTTTL)
	tableCtrl := controllers.NewTableController(deps.Tables)
	orderCtrl := controllers.NewOrderController(deps.Orders, deps.Panel)
	dishCtrl := controllers.NewDishController(deps.Dishes)
	kdsCtrl := controllers.NewKDSController(deps.Hub)

	limiter := middlewares.NewRateLimiter(cfg.ScanRatePerMinute)
	auth := middlewares.AuthMiddleware(secret)
	admin := middlewares.RequireRoles(models.RoleAdmin)
	floorStaff := middlewares.RequireRoles(models.RoleAdmin, models.RoleStaff)
	kitchen := middlewares.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleChef)

	// ----------------------------------------------------------------
	//                      OPERATIONAL
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", func(c *gin.Context) {
		if err := deps.Store.Ping(c.Request.Context()); err != nil {
			utils.RespondError(c, utils.ErrTransient("database unavailable", err))
			return
		}
		utils.RespondJSON(c, http.StatusOK, "healthy", gin.H{"database": "up"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ----------------------------------------------------------------
	//                      ACCOUNTS
	// ----------------------------------------------------------------
	r.POST("/login", limiter.RateLimit(), userCtrl.Login)
	r.POST("/register", auth, admin, userCtrl.Register)
	r.GET("/profile", auth, userCtrl.GetProfile)

	// Observers: kitchen display, floor staff and customer devices
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(secret), kdsCtrl.Handle)

	// ----------------------------------------------------------------
	//                      TABLES
	// ----------------------------------------------------------------
	table := r.Group("/table")
	{
		table.GET("/all", tableCtrl.GetAllTables)
		table.GET("/only/:id", tableCtrl.GetTable)
		table.POST("/scan", limiter.RateLimit(), tableCtrl.ScanQR)
		table.GET("/check/:id", tableCtrl.CheckTable)

		table.PUT("/pay/:id", auth, floorStaff, tableCtrl.PayCheck)
		table.POST("/create", auth, floorStaff, tableCtrl.CreateTable)
		table.PATCH("/update/:id", auth, floorStaff, tableCtrl.PatchTable)
		table.DELETE("/delete/:id", auth, floorStaff, tableCtrl.DeleteTable)
	}

	// ----------------------------------------------------------------
	//                      ORDERS
	// ----------------------------------------------------------------
	order := r.Group("/order")
	{
		order.POST("/create", orderCtrl.CreateOrder)
		order.GET("/panel", auth, kitchen, orderCtrl.GetPanel)
		order.PATCH("/update/:id", auth, kitchen, orderCtrl.UpdateItemStatus)
	}

	// ----------------------------------------------------------------
	//                      DISHES
	// ----------------------------------------------------------------
	dish := r.Group("/dish")
	{
		dish.GET("/all", dishCtrl.GetAllDishes)
		dish.GET("/only/:id", dishCtrl.GetDish)

		dish.POST("/create", auth, admin, dishCtrl.CreateDish)
		dish.PATCH("/update/:id", auth, admin, dishCtrl.UpdateDish)
		dish.DELETE("/delete/:id", auth, admin, dishCtrl.DeleteDish)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.RespondError(c, utils.ErrNotFound("route %s %s not found", c.Request.Method, c.Request.URL.Path))
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
