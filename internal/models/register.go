package models

import "time"

// RegisterClosing is an append-only end-of-day reconciliation record
// ("cierre de caja"). Diferencia = TotalEsperado - counted cash.
type RegisterClosing struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Fecha          time.Time `gorm:"index" json:"fecha"`
	DineroInicial  float64   `gorm:"not null" json:"dinero_inicial"`
	TotalVentas    float64   `gorm:"not null" json:"total_ventas"`
	TotalEsperado  float64   `gorm:"not null" json:"total_esperado"`
	Diferencia     float64   `gorm:"not null" json:"diferencia"`
	CantidadVentas int       `gorm:"not null" json:"cantidad_ventas"`
}

func (RegisterClosing) TableName() string { return "cierres_caja" }
