package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khoatrankai/autoparts-backoffice/api/controllers"
	"github.com/khoatrankai/autoparts-backoffice/api/middleware"
	"github.com/khoatrankai/autoparts-backoffice/internal/audit"
	"github.com/khoatrankai/autoparts-backoffice/internal/orders"
	"github.com/khoatrankai/autoparts-backoffice/internal/partners"
	"github.com/khoatrankai/autoparts-backoffice/internal/products"
	"github.com/khoatrankai/autoparts-backoffice/internal/purchases"
	"github.com/khoatrankai/autoparts-backoffice/internal/returns"
	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/internal/stockcard"
	"github.com/khoatrankai/autoparts-backoffice/internal/transfers"
	"github.com/khoatrankai/autoparts-backoffice/internal/warehouses"
	"github.com/khoatrankai/autoparts-backoffice/pkg/config"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
	pkgredis "github.com/khoatrankai/autoparts-backoffice/pkg/redis"
)

// Deps collects everything the HTTP surface needs wired in.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisClient *pkgredis.Client

	ProductsRepo   *products.Repository
	WarehousesRepo *warehouses.Repository
	PartnersRepo   *partners.Repository
	Ledger         *stock.Ledger
	Journal        *stock.Journal
	Reconstructor  *stockcard.Reconstructor

	OrderService    orders.Service
	TransferService transfers.Service
	PurchaseService purchases.Service
	ReturnService   returns.Service
	AuditService    audit.Service
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	logg := deps.Logger

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger pkgredis.Pinger
	if deps.RedisClient != nil {
		redisPinger = deps.RedisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, logg, deps.DBPinger, redisPinger))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		var idemStore pkgredis.IdempotencyStore
		if deps.RedisClient != nil {
			idemStore = deps.RedisClient
		}
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(deps.ProductsRepo, logg))
			r.Get("/", controllers.ListProducts(deps.ProductsRepo, logg))
			r.Get("/{id}", controllers.GetProduct(deps.ProductsRepo, logg))
			r.Patch("/{id}", controllers.UpdateProduct(deps.ProductsRepo, logg))
			r.Get("/{id}/stock-card", controllers.ProductStockCard(deps.Reconstructor, logg))
			r.Get("/{id}/movements", controllers.ProductMovements(deps.Journal, logg))
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Post("/", controllers.CreateWarehouse(deps.WarehousesRepo, logg))
			r.Get("/", controllers.ListWarehouses(deps.WarehousesRepo, logg))
			r.Get("/{id}", controllers.GetWarehouse(deps.WarehousesRepo, logg))
			r.Get("/{id}/stock", controllers.WarehouseStock(deps.Ledger, logg))
		})

		r.Route("/partners", func(r chi.Router) {
			r.Post("/", controllers.CreatePartner(deps.PartnersRepo, logg))
			r.Get("/", controllers.ListPartners(deps.PartnersRepo, logg))
			r.Get("/{id}", controllers.GetPartner(deps.PartnersRepo, logg))
			r.Patch("/{id}/status", controllers.UpdatePartnerStatus(deps.PartnersRepo, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.OrderService, logg))
			r.Get("/", controllers.ListOrders(deps.OrderService, logg))
			r.Get("/{id}", controllers.GetOrder(deps.OrderService, logg))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", controllers.CreateTransfer(deps.TransferService, logg))
			r.Get("/", controllers.ListTransfers(deps.TransferService, logg))
			r.Get("/{id}", controllers.GetTransfer(deps.TransferService, logg))
			r.Post("/{id}/receive", controllers.ReceiveTransfer(deps.TransferService, logg))
			r.Post("/{id}/reject", controllers.RejectTransfer(deps.TransferService, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", controllers.CreatePurchase(deps.PurchaseService, logg))
			r.Get("/", controllers.ListPurchases(deps.PurchaseService, logg))
			r.Get("/{id}", controllers.GetPurchase(deps.PurchaseService, logg))
			r.Post("/{id}/complete", controllers.CompletePurchase(deps.PurchaseService, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Post("/", controllers.CreateReturn(deps.ReturnService, logg))
			r.Get("/", controllers.ListReturns(deps.ReturnService, logg))
			r.Get("/{id}", controllers.GetReturn(deps.ReturnService, logg))
		})

		r.Get("/movements/by-reference/{code}", controllers.MovementsByReference(deps.Journal, logg))
		r.Get("/audit/{entity}/{entityID}", controllers.AuditHistory(deps.AuditService, logg))
	})

	return r
}
