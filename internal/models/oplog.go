package models

import "time"

// OperationLog is the audit trail. Snapshots are serialized JSON; retention
// is capped to the most recent 1000 rows by the oplog writer.
type OperationLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TipoOperacion   string    `gorm:"index;not null" json:"tipo_operacion"`
	Descripcion     string    `gorm:"not null" json:"descripcion"`
	Usuario         string    `json:"usuario"`
	EntidadAfectada string    `json:"entidad_afectada"`
	IDEntidad       uint      `json:"id_entidad"`
	DatosAnteriores string    `json:"datos_anteriores"`
	DatosNuevos     string    `json:"datos_nuevos"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

func (OperationLog) TableName() string { return "operaciones_log" }

// ConfigEntry is a singleton key/value system setting.
type ConfigEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Clave       string    `gorm:"uniqueIndex;not null" json:"clave"`
	Valor       string    `gorm:"not null" json:"valor"`
	Descripcion string    `json:"descripcion"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ConfigEntry) TableName() string { return "configuracion" }
