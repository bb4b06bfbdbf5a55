package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/assets"
	"github.com/yeremiapane/restaurant-floor/config"
	"github.com/yeremiapane/restaurant-floor/database"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/rabbitmq"
	"github.com/yeremiapane/restaurant-floor/router"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// app owns the long-lived pieces that need closing on shutdown.
type app struct {
	deps      router.Dependencies
	hub       *kds.Hub
	publisher *rabbitmq.Publisher
}

func newApp(cfg *config.Config, db *gorm.DB) *app {
	a := &app{hub: kds.NewHub(0)}

	var broadcaster kds.Broadcaster = a.hub
	if cfg.RabbitMQURL != "" {
		pub, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			// the websocket hub keeps working without the broker mirror
			utils.ErrorLogger.WithError(err).Warn("rabbitmq unavailable, events go to websocket observers only")
		} else {
			a.publisher = pub
			broadcaster = kds.Fanout{a.hub, pub}
		}
	}

	st := store.New(db, store.Options{
		Timeout: cfg.TxTimeout,
		Retries: cfg.TxRetries,
	})
	qr := assets.NewLocalQRProvisioner(cfg.UploadDir, cfg.QRFolder, cfg.PublicBaseURL)
	catalog := services.GormDishCatalog{}

	a.deps = router.Dependencies{
		Config: cfg,
		Store:  st,
		Hub:    a.hub,
		Tables: services.NewTableService(st, broadcaster, qr),
		Orders: services.NewOrderService(st, broadcaster, catalog),
		Panel:  services.NewPanelService(st),
		Dishes: services.NewDishService(st, catalog),
	}
	return a
}

func (a *app) Close() {
	a.hub.Close()
	if a.publisher != nil {
		a.publisher.Close()
	}
}

func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed admin: %v", err)
	}

	a := newApp(cfg, db)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(a.deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	err = run(srv, quit)
	a.Close()
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

// run serves until a signal arrives on quit or the listener fails. A signal
// leads to a graceful shutdown; a listener failure is returned as is.
func run(srv *http.Server, quit <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		utils.InfoLogger.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		utils.InfoLogger.Info("shutting down")
	case err := <-serveErr:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
