package server

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"posventa/internal/auth"
	"posventa/internal/config"
	"posventa/internal/handlers"
	"posventa/internal/httpx"
	"posventa/internal/services"
)

// Deps carries everything the router needs. Services are built once in main
// so their lifecycles (notably the oplog writer) outlive individual requests.
type Deps struct {
	DB       *gorm.DB
	Config   config.Config
	OpLog    *services.OpLogService
	Licenses *services.LicenseService
}

// New constructs the root http.Handler with all routes and middlewares
// applied. Reads are public except the sales ledger and closing history;
// every mutating method goes through the Basic-auth write guard.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	creds := auth.Credentials{User: d.Config.AdminUser, PassHash: d.Config.AdminPassHash}

	saleSvc := services.NewSaleService(d.DB, d.OpLog)
	registerSvc := services.NewRegisterService(d.DB, saleSvc, d.OpLog)
	promotionSvc := services.NewPromotionService(d.DB, d.Licenses, d.OpLog)

	products := handlers.NewProductHandler(d.DB, d.OpLog)
	sales := handlers.NewSaleHandler(saleSvc)
	registers := handlers.NewRegisterHandler(registerSvc)
	suppliers := handlers.NewSupplierHandler(d.DB, d.OpLog)
	orders := handlers.NewOrderHandler(d.DB, d.OpLog)
	promotions := handlers.NewPromotionHandler(promotionSvc)
	licenses := handlers.NewLicenseHandler(d.Licenses)
	oplog := handlers.NewOpLogHandler(d.DB, d.OpLog)
	stats := handlers.NewStatsHandler(d.DB, d.Config.DatabaseDSN)
	admin := handlers.NewAdminHandler(d.DB, d.OpLog)

	// --- Health ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Catalog (reads open, writes protected) ---
	mux.Handle("GET /api/products", http.HandlerFunc(products.List))
	mux.Handle("GET /api/products/search", http.HandlerFunc(products.Search))
	mux.Handle("GET /api/products/with-discounts", http.HandlerFunc(products.WithDiscounts))
	mux.Handle("GET /api/products/{id}", http.HandlerFunc(products.Get))
	mux.Handle("POST /api/products", http.HandlerFunc(products.Create))
	mux.Handle("PUT /api/products/{id}", http.HandlerFunc(products.Update))
	mux.Handle("GET /api/categories", http.HandlerFunc(products.Categories))

	// --- Sales ledger ---
	mux.Handle("GET /api/sales", creds.Require(http.HandlerFunc(sales.List)))
	mux.Handle("POST /api/sales", http.HandlerFunc(sales.Create))
	mux.Handle("DELETE /api/sales/{id}", http.HandlerFunc(sales.Cancel))

	// --- Cash register ---
	mux.Handle("POST /api/close-register-preview", http.HandlerFunc(registers.Preview))
	mux.Handle("POST /api/close-register-confirm", http.HandlerFunc(registers.Confirm))
	mux.Handle("POST /api/close-register", http.HandlerFunc(registers.Close))
	mux.Handle("GET /api/cierres", creds.Require(http.HandlerFunc(registers.History)))

	// --- Suppliers and purchase orders ---
	mux.Handle("GET /api/suppliers", http.HandlerFunc(suppliers.List))
	mux.Handle("GET /api/suppliers/{id}", http.HandlerFunc(suppliers.Get))
	mux.Handle("POST /api/suppliers", http.HandlerFunc(suppliers.Create))
	mux.Handle("PUT /api/suppliers/{id}", http.HandlerFunc(suppliers.Update))
	mux.Handle("DELETE /api/suppliers/{id}", http.HandlerFunc(suppliers.Delete))
	mux.Handle("GET /api/supplier-orders", http.HandlerFunc(orders.List))
	mux.Handle("GET /api/supplier-orders/{id}", http.HandlerFunc(orders.Get))
	mux.Handle("POST /api/supplier-orders", http.HandlerFunc(orders.Create))
	mux.Handle("PUT /api/supplier-orders/{id}/status", http.HandlerFunc(orders.UpdateStatus))
	mux.Handle("DELETE /api/supplier-orders/{id}", http.HandlerFunc(orders.Delete))

	// --- Promotions ---
	mux.Handle("GET /api/promotions", http.HandlerFunc(promotions.List))
	mux.Handle("GET /api/promotions/{id}", http.HandlerFunc(promotions.Get))
	mux.Handle("POST /api/promotions", http.HandlerFunc(promotions.Create))
	mux.Handle("DELETE /api/promotions/{id}", http.HandlerFunc(promotions.Delete))
	mux.Handle("POST /api/clean-duplicate-promotions", http.HandlerFunc(promotions.CleanDuplicates))

	// --- License ---
	mux.Handle("POST /api/activate", http.HandlerFunc(licenses.Activate))
	mux.Handle("GET /api/license-status", http.HandlerFunc(licenses.Status))
	mux.Handle("POST /api/deactivate-license", http.HandlerFunc(licenses.Deactivate))
	mux.Handle("GET /api/can-generate-reports", http.HandlerFunc(licenses.CanGenerateReports))

	// --- Audit log and settings ---
	mux.Handle("GET /api/operations-log", http.HandlerFunc(oplog.List))
	mux.Handle("DELETE /api/operations-log", http.HandlerFunc(oplog.Clear))
	mux.Handle("GET /api/settings/logging-enabled", http.HandlerFunc(oplog.GetLoggingEnabled))
	mux.Handle("PUT /api/settings/logging-enabled", http.HandlerFunc(oplog.SetLoggingEnabled))

	// --- Diagnostics ---
	mux.Handle("GET /api/stats", http.HandlerFunc(stats.Stats))
	mux.Handle("GET /api/diagnostic", http.HandlerFunc(stats.Diagnostic))
	mux.Handle("GET /api/debug-sales", http.HandlerFunc(stats.DebugSales))

	// --- Administration ---
	mux.Handle("POST /api/reset-data", http.HandlerFunc(admin.ResetData))
	mux.Handle("POST /api/reset-data-selective", http.HandlerFunc(admin.ResetDataSelective))
	mux.Handle("POST /api/restore-backup", http.HandlerFunc(admin.RestoreBackup))

	// --- Static frontend ---
	if d.Config.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(d.Config.StaticDir)))
	}

	// Activation stays open: an unlicensed install must be able to redeem
	// its code before anything else.
	return withRecover(withLogging(creds.ProtectWrites(mux, "/api/activate")))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logrus.WithField("panic", rec).Error("handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "Error interno del servidor", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
