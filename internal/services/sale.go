package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"posventa/internal/models"
	"posventa/internal/money"
	"posventa/internal/payment"
)

// InsufficientStockError aborts a sale when a line would drive stock below
// zero. It names the product so the cashier knows which line to fix.
type InsufficientStockError struct {
	Producto string
	Cantidad int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stock insuficiente para el producto %s. Cantidad solicitada: %d", e.Producto, e.Cantidad)
}

var ErrEmptySale = errors.New("La venta debe incluir al menos un item válido")
var ErrSaleNotFound = errors.New("Venta no encontrada")

// SaleItemInput is one line of an incoming sale. Precio is the catalog price
// before discount.
type SaleItemInput struct {
	ID                  uint    `json:"id" validate:"required"`
	Nombre              string  `json:"nombre"`
	Precio              float64 `json:"precio" validate:"gte=0"`
	Cantidad            int     `json:"cantidad" validate:"gt=0"`
	DescuentoPorcentaje float64 `json:"descuento_porcentaje" validate:"gte=0,lte=100"`
}

// SaleInput carries both payment shapes: Pagos when the frontend itemizes,
// otherwise one of the simple method fields.
type SaleInput struct {
	Items         []SaleItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string          `json:"paymentMethod"`
	MetodoPago    string          `json:"metodo_pago"`
	Pagos         []payment.Entry `json:"pagos"`
	Vuelto        float64         `json:"vuelto"`
}

// SaleReceipt is the response for a completed sale.
type SaleReceipt struct {
	NumeroFactura string    `json:"numero_factura"`
	Total         float64   `json:"total"`
	SaleID        uint      `json:"saleId"`
	FechaVenta    time.Time `json:"fecha_venta"`
}

// SaleView is a ledger row with its lines and the parsed payment method.
type SaleView struct {
	ID            uint               `json:"id"`
	NumeroFactura string             `json:"numero_factura"`
	Fecha         time.Time          `json:"fecha"`
	Total         float64            `json:"total"`
	MetodoPago    payment.Descriptor `json:"metodo_pago"`
	Vuelto        float64            `json:"vuelto"`
	Items         []SaleLineView     `json:"items"`
}

type SaleLineView struct {
	ProductoID          uint    `json:"producto_id"`
	Nombre              string  `json:"nombre"`
	Cantidad            int     `json:"cantidad"`
	PrecioUnitario      float64 `json:"precio_unitario"`
	PrecioOriginal      float64 `json:"precio_original"`
	DescuentoPorcentaje float64 `json:"descuento_porcentaje"`
	Subtotal            float64 `json:"subtotal"`
}

// SaleFilter narrows List by calendar date. Date wins over the range fields.
type SaleFilter struct {
	Date      string
	StartDate string
	EndDate   string
}

type SaleService struct {
	DB    *gorm.DB
	OpLog *OpLogService
}

func NewSaleService(db *gorm.DB, oplog *OpLogService) *SaleService {
	return &SaleService{DB: db, OpLog: oplog}
}

// Create records a sale atomically: the header, every line, and a guarded
// stock decrement per line. A line whose decrement matches no row (stock too
// low) rolls the whole sale back.
func (s *SaleService) Create(in SaleInput) (*SaleReceipt, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptySale
	}

	metodoPago := payment.Descriptor{Itemized: in.Pagos}
	if len(in.Pagos) == 0 {
		simple := in.PaymentMethod
		if simple == "" {
			simple = in.MetodoPago
		}
		if simple == "" {
			simple = "efectivo"
		}
		metodoPago = payment.Descriptor{Simple: simple}
	}
	encodedPago, err := metodoPago.Encode()
	if err != nil {
		return nil, err
	}

	lines := make([]models.SaleItem, 0, len(in.Items))
	subtotals := make([]float64, 0, len(in.Items))
	for _, item := range in.Items {
		precioFinal := money.ApplyDiscount(item.Precio, item.DescuentoPorcentaje)
		subtotal := money.LineSubtotal(precioFinal, item.Cantidad)
		subtotals = append(subtotals, subtotal)
		lines = append(lines, models.SaleItem{
			ProductoID:          item.ID,
			Cantidad:            item.Cantidad,
			PrecioUnitario:      precioFinal,
			PrecioOriginal:      money.Round2(item.Precio),
			DescuentoPorcentaje: item.DescuentoPorcentaje,
			Subtotal:            subtotal,
		})
	}
	total := money.Sum(subtotals)

	sale := models.Sale{
		NumeroFactura: fmt.Sprintf("FAC-%d", time.Now().UnixMilli()),
		Total:         total,
		MetodoPago:    encodedPago,
		Vuelto:        in.Vuelto,
		CreatedAt:     time.Now(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sale).Error; err != nil {
			// Millisecond invoice numbers can collide under burst load;
			// retry once with a random suffix.
			if !IsUniqueViolation(err) {
				return err
			}
			sale.NumeroFactura = fmt.Sprintf("%s-%s", sale.NumeroFactura, uuid.NewString()[:8])
			if err := tx.Create(&sale).Error; err != nil {
				return err
			}
		}
		for i, line := range lines {
			line.VentaID = sale.ID
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", line.ProductoID, line.Cantidad).
				Update("stock", gorm.Expr("stock - ?", line.Cantidad))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				nombre := in.Items[i].Nombre
				if nombre == "" {
					var p models.Product
					if tx.Select("nombre").First(&p, line.ProductoID).Error == nil {
						nombre = p.Nombre
					}
				}
				return &InsufficientStockError{Producto: nombre, Cantidad: line.Cantidad}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.OpLog != nil {
		s.OpLog.Record("VENTA",
			fmt.Sprintf("Venta registrada: %s - Total: %s", sale.NumeroFactura, money.Format(total)),
			"Sistema", "ventas", sale.ID, nil,
			map[string]any{
				"numero_factura": sale.NumeroFactura,
				"total":          total,
				"metodo_pago":    metodoPago,
				"items":          len(lines),
			})
	}

	return &SaleReceipt{
		NumeroFactura: sale.NumeroFactura,
		Total:         total,
		SaleID:        sale.ID,
		FechaVenta:    sale.CreatedAt,
	}, nil
}

// IsUniqueViolation reports whether err is a unique-index insert failure.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Cancel deletes a sale and restores the stock its lines consumed.
func (s *SaleService) Cancel(id uint) error {
	var sale models.Sale
	if err := s.DB.First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSaleNotFound
		}
		return err
	}
	var items []models.SaleItem
	if err := s.DB.Where("venta_id = ?", id).Find(&items).Error; err != nil {
		return err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductoID).
				Update("stock", gorm.Expr("stock + ?", item.Cantidad))
			if res.Error != nil {
				return res.Error
			}
		}
		if err := tx.Where("venta_id = ?", id).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Sale{}, id).Error
	})
	if err != nil {
		return err
	}

	if s.OpLog != nil {
		s.OpLog.Record("VENTA_CANCELADA",
			fmt.Sprintf("Venta cancelada: %s - Total: %s", sale.NumeroFactura, money.Format(sale.Total)),
			"Sistema", "ventas", sale.ID, sale, nil)
	}
	return nil
}

// List returns sales newest first, each with its lines and the payment method
// parsed back into its original shape.
func (s *SaleService) List(f SaleFilter) ([]SaleView, error) {
	q := s.DB.Model(&models.Sale{})
	switch {
	case f.Date != "":
		q = q.Where("DATE(created_at) = DATE(?)", f.Date)
	case f.StartDate != "" && f.EndDate != "":
		q = q.Where("DATE(created_at) BETWEEN DATE(?) AND DATE(?)", f.StartDate, f.EndDate)
	case f.StartDate != "":
		q = q.Where("DATE(created_at) >= DATE(?)", f.StartDate)
	case f.EndDate != "":
		q = q.Where("DATE(created_at) <= DATE(?)", f.EndDate)
	}
	var sales []models.Sale
	if err := q.Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, err
	}

	views := make([]SaleView, 0, len(sales))
	for _, sale := range sales {
		var lines []SaleLineView
		err := s.DB.Table("venta_items vi").
			Select("vi.producto_id, p.nombre, vi.cantidad, vi.precio_unitario, vi.precio_original, vi.descuento_porcentaje, vi.subtotal").
			Joins("JOIN productos p ON vi.producto_id = p.id").
			Where("vi.venta_id = ?", sale.ID).
			Order("vi.id").
			Scan(&lines).Error
		if err != nil {
			return nil, err
		}
		views = append(views, SaleView{
			ID:            sale.ID,
			NumeroFactura: sale.NumeroFactura,
			Fecha:         sale.CreatedAt,
			Total:         sale.Total,
			MetodoPago:    payment.Decode(sale.MetodoPago),
			Vuelto:        sale.Vuelto,
			Items:         lines,
		})
	}
	return views, nil
}
