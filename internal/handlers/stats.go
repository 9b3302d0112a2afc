package handlers

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"posventa/internal/httpx"
	"posventa/internal/models"
)

type StatsHandler struct {
	DB     *gorm.DB
	DBFile string
}

func NewStatsHandler(db *gorm.DB, dbFile string) *StatsHandler {
	return &StatsHandler{DB: db, DBFile: dbFile}
}

type topProduct struct {
	ID           uint   `json:"id"`
	Nombre       string `json:"nombre"`
	Codigo       string `json:"codigo"`
	TotalVendido int    `json:"total_vendido"`
}

// Stats aggregates catalog size, sale counts, revenue, and the best sellers.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var totalProducts, totalSales int64
	var totalRevenue float64
	if err := h.DB.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if err := h.DB.Model(&models.Sale{}).Count(&totalSales).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if err := h.DB.Model(&models.Sale{}).Select("COALESCE(SUM(total), 0)").Scan(&totalRevenue).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	var top []topProduct
	err := h.DB.Table("venta_items vi").
		Select("p.id, p.nombre, p.codigo, SUM(vi.cantidad) as total_vendido").
		Joins("JOIN productos p ON vi.producto_id = p.id").
		Group("p.id").
		Order("total_vendido DESC").
		Scan(&top).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if top == nil {
		top = []topProduct{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"total_products": totalProducts,
		"total_sales":    totalSales,
		"total_revenue":  totalRevenue,
		"top_products":   top,
	})
}

// Diagnostic is the health endpoint the frontend polls.
func (h *StatsHandler) Diagnostic(w http.ResponseWriter, r *http.Request) {
	var totalProducts, totalSales int64
	if err := h.DB.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{
			"error":    err.Error(),
			"database": "SQLite",
			"status":   "ERROR",
		})
		return
	}
	if err := h.DB.Model(&models.Sale{}).Count(&totalSales).Error; err != nil {
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{
			"error":    err.Error(),
			"database": "SQLite",
			"status":   "ERROR",
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"database":       "SQLite",
		"file":           h.DBFile,
		"total_products": totalProducts,
		"total_sales":    totalSales,
		"status":         "OK",
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// DebugSales dumps the newest raw rows for troubleshooting.
func (h *StatsHandler) DebugSales(w http.ResponseWriter, r *http.Request) {
	var sales []models.Sale
	if err := h.DB.Order("created_at DESC").Limit(5).Find(&sales).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	var items []models.SaleItem
	if err := h.DB.Order("id DESC").Limit(10).Find(&items).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"raw_sales":   sales,
		"raw_items":   items,
		"sales_count": len(sales),
		"items_count": len(items),
	})
}
