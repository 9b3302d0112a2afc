package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"posventa/internal/httpx"
	"posventa/internal/models"
	"posventa/internal/money"
	"posventa/internal/services"
)

var validOrderStates = map[string]bool{
	"pendiente":  true,
	"en_proceso": true,
	"entregado":  true,
	"cancelado":  true,
}

type OrderHandler struct {
	DB    *gorm.DB
	OpLog *services.OpLogService
}

func NewOrderHandler(db *gorm.DB, oplog *services.OpLogService) *OrderHandler {
	return &OrderHandler{DB: db, OpLog: oplog}
}

// orderView joins the order with the supplier contact fields the listing
// shows.
type orderView struct {
	models.SupplierOrder
	NombreProveedor string `json:"nombre_proveedor"`
	NombreContacto  string `json:"nombre_contacto"`
	Telefono        string `json:"telefono"`
	Email           string `json:"email"`
}

func (h *OrderHandler) joined() *gorm.DB {
	return h.DB.Table("pedidos_proveedores pp").
		Select("pp.*, p.nombre_proveedor, p.nombre_contacto, p.telefono, p.email").
		Joins("JOIN proveedores p ON pp.proveedor_id = p.id")
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var orders []orderView
	if err := h.joined().Order("pp.fecha_pedido DESC").Scan(&orders).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if orders == nil {
		orders = []orderView{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

type orderItemView struct {
	models.OrderItem
	ProductoNombre string `json:"producto_nombre"`
	ProductoCodigo string `json:"producto_codigo"`
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	var order orderView
	res := h.joined().Where("pp.id = ?", id).Scan(&order)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, res.Error.Error(), nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "Pedido no encontrado", nil)
		return
	}
	var items []orderItemView
	err = h.DB.Table("pedido_items pi").
		Select("pi.*, pr.nombre as producto_nombre, pr.codigo as producto_codigo").
		Joins("JOIN productos pr ON pi.producto_id = pr.id").
		Where("pi.pedido_id = ?", id).
		Order("pi.id").
		Scan(&items).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	order.Items = nil
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":                     order.ID,
		"numero_pedido":          order.NumeroPedido,
		"proveedor_id":           order.ProveedorID,
		"fecha_pedido":           order.FechaPedido,
		"fecha_entrega_estimada": order.FechaEntregaEstimada,
		"estado":                 order.Estado,
		"total":                  order.Total,
		"notas":                  order.Notas,
		"nombre_proveedor":       order.NombreProveedor,
		"nombre_contacto":        order.NombreContacto,
		"telefono":               order.Telefono,
		"email":                  order.Email,
		"items":                  items,
	})
}

type orderItemInput struct {
	ProductoID     uint    `json:"producto_id" validate:"required"`
	Cantidad       int     `json:"cantidad" validate:"gt=0"`
	PrecioUnitario float64 `json:"precio_unitario" validate:"gte=0"`
}

type orderInput struct {
	ProveedorID          uint             `json:"proveedor_id" validate:"required"`
	FechaEntregaEstimada *time.Time       `json:"fecha_entrega_estimada"`
	Items                []orderItemInput `json:"items" validate:"required,min=1,dive"`
	Notas                string           `json:"notas"`
}

// Create registers a purchase order with a PED-<timestamp> number and a
// total summed from its lines.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in orderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	if in.ProveedorID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "El ID del proveedor es requerido", nil)
		return
	}
	if len(in.Items) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "El pedido debe incluir al menos un item", nil)
		return
	}
	if err := validate.Struct(in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "El pedido debe incluir al menos un item", nil)
		return
	}

	var supplierCount int64
	if err := h.DB.Model(&models.Supplier{}).Where("id = ?", in.ProveedorID).Count(&supplierCount).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if supplierCount == 0 {
		httpx.JSONError(w, http.StatusNotFound, "Proveedor no encontrado", nil)
		return
	}

	lines := make([]models.OrderItem, 0, len(in.Items))
	subtotals := make([]float64, 0, len(in.Items))
	for _, item := range in.Items {
		subtotal := money.LineSubtotal(item.PrecioUnitario, item.Cantidad)
		subtotals = append(subtotals, subtotal)
		lines = append(lines, models.OrderItem{
			ProductoID:     item.ProductoID,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       subtotal,
		})
	}

	order := models.SupplierOrder{
		NumeroPedido:         fmt.Sprintf("PED-%d", time.Now().UnixMilli()),
		ProveedorID:          in.ProveedorID,
		FechaEntregaEstimada: in.FechaEntregaEstimada,
		Estado:               "pendiente",
		Total:                money.Sum(subtotals),
		Notas:                in.Notas,
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			if !services.IsUniqueViolation(err) {
				return err
			}
			// Two orders in the same millisecond collide on the number.
			order.NumeroPedido = fmt.Sprintf("%s-%s", order.NumeroPedido, uuid.NewString()[:8])
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
		}
		for _, line := range lines {
			line.PedidoID = order.ID
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "Error interno del servidor: "+err.Error(), nil)
		return
	}

	if h.OpLog != nil {
		h.OpLog.Record("PEDIDO_CREADO",
			fmt.Sprintf("Pedido creado: %s - Proveedor ID: %d", order.NumeroPedido, order.ProveedorID),
			"Sistema", "pedidos_proveedores", order.ID, nil,
			map[string]any{
				"numero_pedido": order.NumeroPedido,
				"proveedor_id":  order.ProveedorID,
				"total":         order.Total,
				"items":         len(lines),
			})
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"message":       "Pedido creado exitosamente",
		"order_id":      order.ID,
		"numero_pedido": order.NumeroPedido,
	})
}

// UpdateStatus moves an order through its lifecycle.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	var in struct {
		Estado string `json:"estado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	if !validOrderStates[in.Estado] {
		httpx.JSONError(w, http.StatusBadRequest, "Estado inválido", nil)
		return
	}

	var existing models.SupplierOrder
	if err := h.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Pedido no encontrado", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if err := h.DB.Model(&models.SupplierOrder{}).Where("id = ?", id).Update("estado", in.Estado).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if h.OpLog != nil {
		h.OpLog.Record("PEDIDO_ESTADO_ACTUALIZADO",
			fmt.Sprintf("Estado del pedido %s cambiado a: %s", existing.NumeroPedido, in.Estado),
			"Sistema", "pedidos_proveedores", existing.ID, existing,
			map[string]any{"estado": in.Estado})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Estado del pedido actualizado exitosamente",
	})
}

// Delete removes an order with its items.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	var existing models.SupplierOrder
	if err := h.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Pedido no encontrado", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pedido_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SupplierOrder{}, id).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "Error interno del servidor: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Pedido eliminado exitosamente",
	})
}
