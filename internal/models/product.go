package models

import "time"

// Product is a catalog entry. Stock is guarded against going negative by the
// conditional decrement in the sale service, never by application-level reads.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Codigo      string    `gorm:"uniqueIndex;not null" json:"codigo"`
	Nombre      string    `gorm:"index;not null" json:"nombre"`
	Descripcion string    `json:"descripcion"`
	Precio      float64   `gorm:"not null" json:"precio"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	Categoria   string    `gorm:"index" json:"categoria"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Product) TableName() string { return "productos" }

// ProductView is a Product joined with its active promotion discount, the
// shape every catalog read endpoint returns.
type ProductView struct {
	Product
	DescuentoPorcentaje float64 `json:"descuento_porcentaje"`
	EnPromocion         int     `json:"en_promocion"`
	PrecioConDescuento  float64 `json:"precio_con_descuento"`
}
