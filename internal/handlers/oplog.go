package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"posventa/internal/httpx"
	"posventa/internal/models"
	"posventa/internal/services"
)

type OpLogHandler struct {
	DB    *gorm.DB
	OpLog *services.OpLogService
}

func NewOpLogHandler(db *gorm.DB, oplog *services.OpLogService) *OpLogHandler {
	return &OpLogHandler{DB: db, OpLog: oplog}
}

// List returns the newest audit entries.
func (h *OpLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.OpLog.Recent(limit)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if entries == nil {
		entries = []models.OperationLog{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

// Clear wipes the audit trail and records that it happened.
func (h *OpLogHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if _, err := h.OpLog.Clear(); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	h.OpLog.Record("LOG_LIMPIADO", "Registro de operaciones limpiado manualmente",
		"Sistema", "operaciones_log", 0, nil, nil)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Registro de operaciones limpiado exitosamente",
	})
}

// GetLoggingEnabled reads the logging_enabled configuration.
func (h *OpLogHandler) GetLoggingEnabled(w http.ResponseWriter, r *http.Request) {
	var cfg models.ConfigEntry
	value := ""
	if err := h.DB.Where("clave = ?", "logging_enabled").First(&cfg).Error; err == nil {
		value = cfg.Valor
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"enabled": value == "true",
		"value":   value,
	})
}

// SetLoggingEnabled toggles audit logging at runtime.
func (h *OpLogHandler) SetLoggingEnabled(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	value := "false"
	verb := "deshabilitado"
	if in.Enabled {
		value = "true"
		verb = "habilitado"
	}
	entry := models.ConfigEntry{
		Clave:       "logging_enabled",
		Valor:       value,
		Descripcion: "Habilita o deshabilita el registro de operaciones para ahorrar consumo del sistema",
	}
	err := h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clave"}},
		DoUpdates: clause.AssignmentColumns([]string{"valor", "descripcion", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	h.OpLog.Record("CONFIGURACION_ACTUALIZADA",
		"Registro de actividad "+verb,
		"Sistema", "configuracion", 0, nil,
		map[string]any{"clave": "logging_enabled", "valor": value})
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Registro de actividad " + verb + " exitosamente",
		"enabled": in.Enabled,
	})
}
