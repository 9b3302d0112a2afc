package models

import "time"

// License records are append-only with soft status transitions:
// activa -> desactivada, never deleted and never reactivated. At most one
// record is activa at a time.
type License struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ClaveLicencia   string     `gorm:"uniqueIndex;not null" json:"clave_licencia"`
	Estado          string     `gorm:"default:activa" json:"estado"`
	FechaActivacion time.Time  `gorm:"autoCreateTime" json:"fecha_activacion"`
	FechaExpiracion *time.Time `json:"fecha_expiracion"`
	DatosCliente    string     `json:"datos_cliente,omitempty"`
}

func (License) TableName() string { return "licencia" }
