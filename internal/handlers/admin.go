package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"posventa/internal/httpx"
	"posventa/internal/models"
	"posventa/internal/payment"
	"posventa/internal/services"
)

// AdminHandler groups the destructive maintenance endpoints: full and
// selective resets plus backup restoration. All of them sit behind auth.
type AdminHandler struct {
	DB    *gorm.DB
	OpLog *services.OpLogService
}

func NewAdminHandler(db *gorm.DB, oplog *services.OpLogService) *AdminHandler {
	return &AdminHandler{DB: db, OpLog: oplog}
}

// ResetData wipes sales, closings, and sale audit entries. Products survive.
func (h *AdminHandler) ResetData(w http.ResponseWriter, r *http.Request) {
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM venta_items",
			"DELETE FROM ventas",
			"DELETE FROM cierres_caja",
			"DELETE FROM operaciones_log WHERE tipo_operacion = 'VENTA'",
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "Error reseteando datos: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Datos de ventas, cierres e historial de operaciones reseteados exitosamente. Los productos permanecen intactos.",
	})
}

type selectiveResetInput struct {
	ResetVentas      bool `json:"resetVentas"`
	ResetCierres     bool `json:"resetCierres"`
	ResetProveedores bool `json:"resetProveedores"`
	ResetPromociones bool `json:"resetPromociones"`
	ResetLog         bool `json:"resetLog"`
	ResetMetricas    bool `json:"resetMetricas"`
}

// ResetDataSelective wipes only the sections the operator picked. The reset
// itself is logged before the deletes so the entry survives everything
// except a log reset.
func (h *AdminHandler) ResetDataSelective(w http.ResponseWriter, r *http.Request) {
	var in selectiveResetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}

	var actions []string
	if in.ResetVentas {
		actions = append(actions, "ventas")
	}
	if in.ResetCierres {
		actions = append(actions, "cierres de caja")
	}
	if in.ResetProveedores {
		actions = append(actions, "proveedores")
	}
	if in.ResetPromociones {
		actions = append(actions, "promociones")
	}
	if in.ResetLog {
		actions = append(actions, "registro de operaciones")
	}
	if in.ResetMetricas {
		actions = append(actions, "métricas")
	}

	if len(actions) > 0 && h.OpLog != nil {
		h.OpLog.Record("RESET_SELECTIVO",
			fmt.Sprintf("Reset selectivo realizado: %s", strings.Join(actions, ", ")),
			"Sistema", "sistema", 0, nil,
			map[string]any{"acciones": actions})
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if in.ResetVentas {
			for _, stmt := range []string{
				"DELETE FROM venta_items",
				"DELETE FROM ventas",
				"DELETE FROM operaciones_log WHERE tipo_operacion = 'VENTA'",
			} {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
		}
		if in.ResetCierres {
			if err := tx.Exec("DELETE FROM cierres_caja").Error; err != nil {
				return err
			}
		}
		if in.ResetProveedores {
			for _, stmt := range []string{
				"DELETE FROM proveedores",
				"DELETE FROM operaciones_log WHERE tipo_operacion = 'PROVEEDOR_CREADO'",
			} {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
		}
		if in.ResetPromociones {
			for _, stmt := range []string{
				"DELETE FROM promocion_items",
				"DELETE FROM promociones",
				"DELETE FROM operaciones_log WHERE tipo_operacion = 'PROMOCION_CREADA'",
			} {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
		}
		if in.ResetLog {
			if err := tx.Exec("DELETE FROM operaciones_log").Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "Error en reset selectivo: "+err.Error(), nil)
		return
	}

	message := "No se realizó ningún reset (ninguna opción seleccionada)."
	if len(actions) > 0 {
		message = fmt.Sprintf("Datos reseteados exitosamente: %s. Los productos permanecen intactos.", strings.Join(actions, ", "))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      message,
		"resetActions": actions,
	})
}

// backupPayload mirrors the export format the frontend produces.
type backupPayload struct {
	Timestamp string     `json:"timestamp"`
	Version   string     `json:"version"`
	Data      backupData `json:"data"`
}

type backupData struct {
	Products      []models.Product         `json:"products"`
	Suppliers     []models.Supplier        `json:"suppliers"`
	Promotions    []backupPromotion        `json:"promotions"`
	Sales         []backupSale             `json:"sales"`
	CierresCaja   []models.RegisterClosing `json:"cierres_caja"`
	OperationsLog []models.OperationLog    `json:"operations_log"`
}

type backupPromotion struct {
	models.Promotion
	Items []models.PromotionItem `json:"items"`
}

type backupSale struct {
	ID            uint             `json:"id"`
	NumeroFactura string           `json:"numero_factura"`
	Total         float64          `json:"total"`
	MetodoPago    json.RawMessage  `json:"metodo_pago"`
	Vuelto        float64          `json:"vuelto"`
	Fecha         *time.Time       `json:"fecha"`
	CreatedAt     *time.Time       `json:"created_at"`
	Items         []backupSaleItem `json:"items"`
}

type backupSaleItem struct {
	ProductoID          uint    `json:"producto_id"`
	ID                  uint    `json:"id"`
	Cantidad            int     `json:"cantidad"`
	PrecioUnitario      float64 `json:"precio_unitario"`
	PrecioOriginal      float64 `json:"precio_original"`
	DescuentoPorcentaje float64 `json:"descuento_porcentaje"`
	Subtotal            float64 `json:"subtotal"`
}

var upsertAll = clause.OnConflict{UpdateAll: true}

// RestoreBackup replaces the transactional data with a backup export.
// Sections absent from the payload stay empty; existing products not present
// in the backup are kept. Bad individual rows are skipped, not fatal, so a
// partially corrupt export restores as much as possible.
func (h *AdminHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var backup backupPayload
	if err := json.NewDecoder(r.Body).Decode(&backup); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "Estructura de backup inválida", nil)
		return
	}
	if backup.Timestamp == "" || backup.Version == "" {
		httpx.JSONError(w, http.StatusBadRequest, "Estructura de backup inválida", nil)
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM operaciones_log",
			"DELETE FROM venta_items",
			"DELETE FROM ventas",
			"DELETE FROM promocion_items",
			"DELETE FROM promociones",
			"DELETE FROM cierres_caja",
			"DELETE FROM proveedores",
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}

		for _, product := range backup.Data.Products {
			p := product
			if err := tx.Clauses(upsertAll).Create(&p).Error; err != nil {
				logrus.WithError(err).WithField("id", product.ID).Warn("error restaurando producto")
			}
		}
		for _, supplier := range backup.Data.Suppliers {
			s := supplier
			if s.Estatus == "" {
				s.Estatus = "Activo"
			}
			if err := tx.Clauses(upsertAll).Create(&s).Error; err != nil {
				logrus.WithError(err).WithField("id", supplier.ID).Warn("error restaurando proveedor")
			}
		}
		for _, promo := range backup.Data.Promotions {
			p := promo.Promotion
			p.Items = nil
			if err := tx.Clauses(upsertAll).Create(&p).Error; err != nil {
				logrus.WithError(err).WithField("id", promo.ID).Warn("error restaurando promoción")
				continue
			}
			for _, item := range promo.Items {
				pi := item
				pi.PromocionID = promo.ID
				if err := tx.Clauses(upsertAll).Create(&pi).Error; err != nil {
					logrus.WithError(err).WithField("promocion_id", promo.ID).Warn("error restaurando item de promoción")
				}
			}
		}
		for _, sale := range backup.Data.Sales {
			when := time.Now()
			if sale.Fecha != nil {
				when = *sale.Fecha
			} else if sale.CreatedAt != nil {
				when = *sale.CreatedAt
			}
			var desc payment.Descriptor
			metodo := string(sale.MetodoPago)
			if err := json.Unmarshal(sale.MetodoPago, &desc); err == nil {
				if encoded, err := desc.Encode(); err == nil {
					metodo = encoded
				}
			}
			s := models.Sale{
				ID:            sale.ID,
				NumeroFactura: sale.NumeroFactura,
				Total:         sale.Total,
				MetodoPago:    metodo,
				Vuelto:        sale.Vuelto,
				CreatedAt:     when,
			}
			if err := tx.Clauses(upsertAll).Create(&s).Error; err != nil {
				logrus.WithError(err).WithField("id", sale.ID).Warn("error restaurando venta")
				continue
			}
			for _, item := range sale.Items {
				productoID := item.ProductoID
				if productoID == 0 {
					productoID = item.ID
				}
				precioOriginal := item.PrecioOriginal
				if precioOriginal == 0 {
					precioOriginal = item.PrecioUnitario
				}
				subtotal := item.Subtotal
				if subtotal == 0 {
					subtotal = float64(item.Cantidad) * item.PrecioUnitario
				}
				si := models.SaleItem{
					VentaID:             sale.ID,
					ProductoID:          productoID,
					Cantidad:            item.Cantidad,
					PrecioUnitario:      item.PrecioUnitario,
					PrecioOriginal:      precioOriginal,
					DescuentoPorcentaje: item.DescuentoPorcentaje,
					Subtotal:            subtotal,
				}
				if err := tx.Create(&si).Error; err != nil {
					logrus.WithError(err).WithField("venta_id", sale.ID).Warn("error restaurando item de venta")
				}
			}
		}
		for _, cierre := range backup.Data.CierresCaja {
			c := cierre
			if err := tx.Clauses(upsertAll).Create(&c).Error; err != nil {
				logrus.WithError(err).WithField("id", cierre.ID).Warn("error restaurando cierre")
			}
		}
		for _, op := range backup.Data.OperationsLog {
			o := op
			if o.Usuario == "" {
				o.Usuario = "Sistema"
			}
			if err := tx.Clauses(upsertAll).Create(&o).Error; err != nil {
				logrus.WithError(err).WithField("id", op.ID).Warn("error restaurando operación")
			}
		}
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "Error al restaurar el backup: "+err.Error(), nil)
		return
	}

	sections := restoredSections(backup.Data)
	if h.OpLog != nil {
		h.OpLog.Record("BACKUP_RESTAURADO",
			fmt.Sprintf("Backup restaurado - Timestamp: %s", backup.Timestamp),
			"Sistema", "sistema", 0, nil,
			map[string]any{
				"timestamp":         backup.Timestamp,
				"version":           backup.Version,
				"sections_restored": sections,
			})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Backup restaurado exitosamente",
		"timestamp":         backup.Timestamp,
		"sections_restored": sections,
	})
}

func restoredSections(data backupData) []string {
	sections := []string{}
	if len(data.Products) > 0 {
		sections = append(sections, "products")
	}
	if len(data.Suppliers) > 0 {
		sections = append(sections, "suppliers")
	}
	if len(data.Promotions) > 0 {
		sections = append(sections, "promotions")
	}
	if len(data.Sales) > 0 {
		sections = append(sections, "sales")
	}
	if len(data.CierresCaja) > 0 {
		sections = append(sections, "cierres_caja")
	}
	if len(data.OperationsLog) > 0 {
		sections = append(sections, "operations_log")
	}
	return sections
}
