package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"blackcoffe/internal/auth"
	"blackcoffe/internal/config"
	"blackcoffe/internal/domain"
	httpapi "blackcoffe/internal/http"
	"blackcoffe/internal/repository"
	"blackcoffe/internal/service"
	"blackcoffe/internal/storefront"

	_ "blackcoffe/docs"
)

// @title Black Coffe API
// @version 1.0
// @description Order pricing, invoicing and table reservations for the Black Coffe cafe.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	var (
		catalog      repository.CatalogRepository
		orders       repository.OrderRepository
		tables       repository.TableRepository
		reservations repository.ReservationRepository
	)
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool, err := repository.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := repository.Migrate(ctx, pool); err != nil {
			log.Error("migrate failed", "err", err)
			os.Exit(1)
		}
		catalog = &repository.PGCatalog{DB: pool}
		orders = &repository.PGOrders{DB: pool}
		tables = &repository.PGTables{DB: pool}
		reservations = &repository.PGReservations{DB: pool}
		log.Info("using postgres storage")
	} else {
		store := repository.NewMemoryStore()
		seedDemo(store)
		catalog = store
		orders = repository.NewMemoryOrders(store)
		tables = store
		reservations = repository.NewMemoryReservations(store)
		log.Info("using in-memory storage")
	}

	settings := storefront.NewService(cfg.StorefrontDir)
	tokens := auth.NewManager(cfg.AuthSecret)

	ordersSvc := service.NewOrderService(catalog, orders)
	invoicesSvc := service.NewInvoiceService(orders, settings)
	reservationsSvc := service.NewReservationService(tables, reservations)

	srv := httpapi.NewServer(ordersSvc, invoicesSvc, reservationsSvc, catalog, settings, tokens, log)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		log.Info("http server listening", "addr", httpServer.Addr, "service", cfg.ServiceName)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "err", err)
	}
}

// seedDemo fills the in-memory store with enough data to exercise the
// API without a database.
func seedDemo(store *repository.MemoryStore) {
	ctx := context.Background()
	for _, p := range []domain.Product{
		{Name: "Americano", Price: decimal.RequireFromString("25.00"), IsAvailable: true},
		{Name: "Cappuccino", Price: decimal.RequireFromString("30.00"), IsAvailable: true},
		{Name: "Latte", Price: decimal.RequireFromString("32.00"), IsAvailable: true},
		{Name: "Croissant", Price: decimal.RequireFromString("18.50"), IsAvailable: true},
	} {
		p := p
		_ = store.UpsertProduct(ctx, &p)
	}
	for i, capacity := range []int{2, 2, 4, 4, 6} {
		_ = store.Upsert(ctx, &domain.CafeTable{
			Name:     fmt.Sprintf("Mesa %d", i+1),
			Capacity: capacity,
			IsActive: true,
		})
	}
}
