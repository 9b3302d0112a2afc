package models

import "time"

// Supplier contact card. Only the name is mandatory.
type Supplier struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	NombreProveedor    string    `gorm:"not null;index" json:"nombre_proveedor"`
	NombreContacto     string    `json:"nombre_contacto"`
	Telefono           string    `json:"telefono"`
	Email              string    `json:"email"`
	ProductosServicios string    `json:"productos_servicios"`
	CondicionesPago    string    `json:"condiciones_pago"`
	Estatus            string    `gorm:"default:Activo" json:"estatus"`
	Notas              string    `json:"notas"`
	CreatedAt          time.Time `json:"created_at"`
}

func (Supplier) TableName() string { return "proveedores" }

// SupplierOrder tracks a purchase order to a supplier.
// Estado: pendiente | en_proceso | entregado | cancelado.
type SupplierOrder struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	NumeroPedido         string      `gorm:"uniqueIndex;not null" json:"numero_pedido"`
	ProveedorID          uint        `gorm:"index;not null" json:"proveedor_id"`
	FechaPedido          time.Time   `gorm:"autoCreateTime" json:"fecha_pedido"`
	FechaEntregaEstimada *time.Time  `json:"fecha_entrega_estimada"`
	Estado               string      `gorm:"default:pendiente" json:"estado"`
	Total                float64     `gorm:"default:0" json:"total"`
	Notas                string      `json:"notas"`
	Items                []OrderItem `gorm:"foreignKey:PedidoID" json:"items,omitempty"`
	Proveedor            Supplier    `gorm:"foreignKey:ProveedorID" json:"-"`
}

func (SupplierOrder) TableName() string { return "pedidos_proveedores" }

type OrderItem struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	PedidoID       uint    `gorm:"index;not null" json:"pedido_id"`
	ProductoID     uint    `gorm:"index;not null" json:"producto_id"`
	Cantidad       int     `gorm:"not null" json:"cantidad"`
	PrecioUnitario float64 `gorm:"not null" json:"precio_unitario"`
	Subtotal       float64 `gorm:"not null" json:"subtotal"`
}

func (OrderItem) TableName() string { return "pedido_items" }
