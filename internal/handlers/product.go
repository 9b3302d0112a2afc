package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"posventa/internal/httpx"
	"posventa/internal/models"
	"posventa/internal/services"
)

var validate = validator.New()

// productWithDiscount is the catalog projection every read endpoint serves:
// the product joined to its promotion item, with the discounted price
// computed in SQL.
const productWithDiscount = `
	p.*,
	COALESCE(pi.descuento_porcentaje, 0) as descuento_porcentaje,
	CASE WHEN pi.descuento_porcentaje > 0 THEN 1 ELSE 0 END as en_promocion,
	CASE WHEN pi.descuento_porcentaje > 0 THEN ROUND(p.precio * (1 - pi.descuento_porcentaje / 100), 2) ELSE p.precio END as precio_con_descuento`

type ProductHandler struct {
	DB    *gorm.DB
	OpLog *services.OpLogService
}

func NewProductHandler(db *gorm.DB, oplog *services.OpLogService) *ProductHandler {
	return &ProductHandler{DB: db, OpLog: oplog}
}

func (h *ProductHandler) discountedQuery() *gorm.DB {
	return h.DB.Table("productos p").
		Select(productWithDiscount).
		Joins("LEFT JOIN promocion_items pi ON p.id = pi.producto_id")
}

// List returns the whole catalog ordered by name, promotions applied.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var products []models.ProductView
	if err := h.discountedQuery().Order("p.nombre").Scan(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if products == nil {
		products = []models.ProductView{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

// WithDiscounts serves the same projection as List under its own path.
func (h *ProductHandler) WithDiscounts(w http.ResponseWriter, r *http.Request) {
	h.List(w, r)
}

type searchResponse struct {
	Products   []models.ProductView `json:"products"`
	Pagination struct {
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"hasMore"`
	} `json:"pagination"`
	Search struct {
		Query          *string `json:"query"`
		Category       *string `json:"category"`
		OnlyPromotions bool    `json:"only_promotions"`
	} `json:"search"`
}

// Search filters by free text over name and code, by category, and
// optionally by promotion membership, with limit/offset paging.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	category := r.URL.Query().Get("category")
	onlyPromotions := r.URL.Query().Get("only_promotions") == "true"

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 200 {
		limit = 200
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	dbq := h.discountedQuery()
	if category != "" {
		dbq = dbq.Where("p.categoria = ?", category)
	}
	if q != "" {
		like := "%" + q + "%"
		dbq = dbq.Where("LOWER(p.nombre) LIKE LOWER(?) OR LOWER(p.codigo) LIKE LOWER(?)", like, like)
	}
	if onlyPromotions {
		dbq = dbq.Where("pi.descuento_porcentaje > 0")
	}

	var products []models.ProductView
	if err := dbq.Order("p.nombre").Limit(limit).Offset(offset).Scan(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if products == nil {
		products = []models.ProductView{}
	}

	var resp searchResponse
	resp.Products = products
	resp.Pagination.Limit = limit
	resp.Pagination.Offset = offset
	resp.Pagination.HasMore = len(products) == limit
	if q != "" {
		resp.Search.Query = &q
	}
	if category != "" {
		resp.Search.Category = &category
	}
	resp.Search.OnlyPromotions = onlyPromotions
	httpx.JSON(w, http.StatusOK, resp)
}

// Get returns one product with its discount projection.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	var product models.ProductView
	res := h.discountedQuery().Where("p.id = ?", id).Scan(&product)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, res.Error.Error(), nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "Producto no encontrado", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

type createProductInput struct {
	Codigo      string   `json:"codigo" validate:"required"`
	Nombre      string   `json:"nombre" validate:"required"`
	Descripcion string   `json:"descripcion"`
	Precio      *float64 `json:"precio" validate:"required,gte=0"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
	Categoria   string   `json:"categoria"`
}

// Create inserts a catalog entry after checking the code is free.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in createProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	if err := validate.Struct(in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "Código, nombre, precio y stock son campos requeridos", nil)
		return
	}

	var existing int64
	if err := h.DB.Model(&models.Product{}).Where("codigo = ?", in.Codigo).Count(&existing).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if existing > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "Ya existe un producto con este código", nil)
		return
	}

	p := models.Product{
		Codigo:      in.Codigo,
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		Precio:      *in.Precio,
		Stock:       *in.Stock,
		Categoria:   in.Categoria,
	}
	if err := h.DB.Create(&p).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if h.OpLog != nil {
		h.OpLog.Record("PRODUCTO_CREADO",
			fmt.Sprintf("Producto creado: %s (%s)", p.Nombre, p.Codigo),
			"Sistema", "productos", p.ID, nil, p)
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Producto creado exitosamente",
		"product": p,
	})
}

type updateProductInput struct {
	Codigo      *string  `json:"codigo"`
	Nombre      *string  `json:"nombre"`
	Descripcion *string  `json:"descripcion"`
	Precio      *float64 `json:"precio"`
	Stock       *int     `json:"stock"`
	Categoria   *string  `json:"categoria"`
}

// Update applies a partial edit. Absent fields keep their value; a code
// change must not collide with another product.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	var in updateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}

	var old models.Product
	if err := h.DB.First(&old, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Producto no encontrado", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if in.Codigo != nil {
		var dup int64
		if err := h.DB.Model(&models.Product{}).Where("codigo = ? AND id != ?", *in.Codigo, id).Count(&dup).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		if dup > 0 {
			httpx.JSONError(w, http.StatusBadRequest, "El código ya existe para otro producto", nil)
			return
		}
	}

	updates := map[string]any{}
	if in.Codigo != nil {
		updates["codigo"] = *in.Codigo
	}
	if in.Nombre != nil {
		updates["nombre"] = *in.Nombre
	}
	if in.Descripcion != nil {
		updates["descripcion"] = *in.Descripcion
	}
	if in.Precio != nil {
		updates["precio"] = *in.Precio
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.Categoria != nil {
		updates["categoria"] = *in.Categoria
	}
	if len(updates) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "No se proporcionaron campos para actualizar", nil)
		return
	}

	if err := h.DB.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	var updated models.Product
	if err := h.DB.First(&updated, id).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if h.OpLog != nil {
		changes := describeChanges(old, updated)
		if len(changes) > 0 {
			h.OpLog.Record("PRODUCTO_EDITADO",
				fmt.Sprintf("Producto editado: %s - Cambios: %s", updated.Nombre, strings.Join(changes, ", ")),
				"Sistema", "productos", updated.ID, old, updated)
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Producto actualizado exitosamente",
		"product": updated,
	})
}

func describeChanges(old, updated models.Product) []string {
	var changes []string
	if old.Codigo != updated.Codigo {
		changes = append(changes, fmt.Sprintf("código: %s → %s", old.Codigo, updated.Codigo))
	}
	if old.Nombre != updated.Nombre {
		changes = append(changes, fmt.Sprintf("nombre: %s → %s", old.Nombre, updated.Nombre))
	}
	if old.Precio != updated.Precio {
		changes = append(changes, fmt.Sprintf("precio: %g → %g", old.Precio, updated.Precio))
	}
	if old.Stock != updated.Stock {
		changes = append(changes, fmt.Sprintf("stock: %d → %d", old.Stock, updated.Stock))
	}
	if old.Categoria != updated.Categoria {
		changes = append(changes, fmt.Sprintf("categoría: %s → %s", orNA(old.Categoria), orNA(updated.Categoria)))
	}
	return changes
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Categories lists the distinct non-empty categories in use.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	var categories []string
	err := h.DB.Model(&models.Product{}).
		Distinct("categoria").
		Where("categoria IS NOT NULL AND categoria != ''").
		Order("categoria").
		Pluck("categoria", &categories).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	httpx.JSON(w, http.StatusOK, categories)
}
