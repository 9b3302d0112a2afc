package models

import "time"

type Promotion struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Titulo    string          `gorm:"not null" json:"titulo"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []PromotionItem `gorm:"foreignKey:PromocionID" json:"items,omitempty"`
}

func (Promotion) TableName() string { return "promociones" }

// PromotionItem attaches a percentage discount to one product. A product may
// belong to at most one promotion at a time; the promotion service enforces
// that at creation.
type PromotionItem struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	PromocionID         uint    `gorm:"index;not null" json:"promocion_id"`
	ProductoID          uint    `gorm:"index;not null" json:"producto_id"`
	DescuentoPorcentaje float64 `gorm:"not null" json:"descuento_porcentaje"`
}

func (PromotionItem) TableName() string { return "promocion_items" }
