package models

import "time"

// Sale is a transaction header. MetodoPago stores either a bare method name
// or a JSON list of itemized payments; the payment package owns that duality.
type Sale struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	NumeroFactura string     `gorm:"uniqueIndex;not null" json:"numero_factura"`
	Total         float64    `gorm:"not null" json:"total"`
	MetodoPago    string     `gorm:"not null" json:"metodo_pago"`
	Vuelto        float64    `gorm:"default:0" json:"vuelto"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	Items         []SaleItem `gorm:"foreignKey:VentaID" json:"items,omitempty"`
}

func (Sale) TableName() string { return "ventas" }

// SaleItem snapshots price and discount at sale time; PrecioUnitario is the
// discounted unit price, PrecioOriginal the catalog price it came from.
type SaleItem struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	VentaID             uint    `gorm:"index;not null" json:"venta_id"`
	ProductoID          uint    `gorm:"index;not null" json:"producto_id"`
	Cantidad            int     `gorm:"not null" json:"cantidad"`
	PrecioUnitario      float64 `gorm:"not null" json:"precio_unitario"`
	PrecioOriginal      float64 `json:"precio_original"`
	DescuentoPorcentaje float64 `gorm:"default:0" json:"descuento_porcentaje"`
	Subtotal            float64 `gorm:"not null" json:"subtotal"`
	Producto            Product `gorm:"foreignKey:ProductoID" json:"-"`
}

func (SaleItem) TableName() string { return "venta_items" }
