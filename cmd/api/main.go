package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/sokoplace/soko-backend/internal/config"
	"github.com/sokoplace/soko-backend/internal/database"
	"github.com/sokoplace/soko-backend/internal/modules/audit"
	"github.com/sokoplace/soko-backend/internal/modules/auth"
	"github.com/sokoplace/soko-backend/internal/modules/cart"
	"github.com/sokoplace/soko-backend/internal/modules/catalog"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/modules/order"
	"github.com/sokoplace/soko-backend/internal/modules/payment"
	"github.com/sokoplace/soko-backend/internal/modules/user"
	"github.com/sokoplace/soko-backend/internal/modules/vendor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	log.Println("connected to database")

	// ── Router ──────────────────────────────────────────────
	resolver := identity.NewResolver(cfg.Session.Secret, cfg.Session.GuestTTL, cfg.Session.SecureCookie)

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(identity.Middleware(resolver))

	// ── Audit trail ─────────────────────────────────────────
	auditRecorder := audit.NewRecorder(audit.NewPostgresRepository(db))

	// ── Identity & accounts ─────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo, auditRecorder)
	user.NewHandler(userService).RegisterRoutes(router)

	// ── Vendors & verification ──────────────────────────────
	kycGateway := vendor.NewSmileGateway(cfg.Smile.PartnerID, cfg.Smile.APIKey, cfg.Smile.BaseURL)
	vendorRepo := vendor.NewPostgresRepository(db)
	vendorService := vendor.NewService(vendorRepo, kycGateway, auditRecorder)
	vendor.NewHandler(vendorService, kycGateway, cfg.IsProduction()).RegisterRoutes(router)

	// ── Catalog & cart ──────────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo, vendorService, auditRecorder)
	catalog.NewHandler(catalogService).RegisterRoutes(router)

	cartRepo := cart.NewPostgresRepository(db)
	cartService := cart.NewService(cartRepo, catalogService)
	cart.NewHandler(cartService).RegisterRoutes(router)

	// ── Auth (login folds the guest cart into the user cart) ─
	authService := auth.NewService(userRepo, resolver, cfg.Session.TokenTTL)
	auth.NewHandler(authService, cartService, cfg.Session.TokenTTL, cfg.Session.SecureCookie).RegisterRoutes(router)

	// ── Orders ──────────────────────────────────────────────
	pricing := order.Pricing{
		ShippingFlatFee: decimal.RequireFromString("1500.00"),
		TaxRate:         decimal.RequireFromString("0.075"), // VAT
	}
	orderRepo := order.NewPostgresRepository(db, catalogRepo)
	orderService := order.NewService(orderRepo, cartService, vendorService, auditRecorder, pricing)
	order.NewHandler(orderService).RegisterRoutes(router)

	// ── Payments ────────────────────────────────────────────
	paymentGateways := payment.GatewayRegistry{
		payment.ProviderPaystack: payment.NewPaystackGateway(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL),
	}
	paymentRepo := payment.NewPostgresRepository(db)
	paymentService := payment.NewService(paymentRepo, orderService, userRepo, paymentGateways)
	payment.NewHandler(paymentService).RegisterRoutes(router)

	// ── Start server ────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	log.Printf("soko api listening on :%s", cfg.Server.Port)
	log.Fatal(srv.ListenAndServe())
}
