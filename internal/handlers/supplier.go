package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"posventa/internal/httpx"
	"posventa/internal/models"
	"posventa/internal/services"
)

type SupplierHandler struct {
	DB    *gorm.DB
	OpLog *services.OpLogService
}

func NewSupplierHandler(db *gorm.DB, oplog *services.OpLogService) *SupplierHandler {
	return &SupplierHandler{DB: db, OpLog: oplog}
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	var suppliers []models.Supplier
	if err := h.DB.Order("nombre_proveedor").Find(&suppliers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, suppliers)
}

func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	var supplier models.Supplier
	if err := h.DB.First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Proveedor no encontrado", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

type supplierInput struct {
	NombreProveedor    string `json:"nombre_proveedor" validate:"required"`
	NombreContacto     string `json:"nombre_contacto"`
	Telefono           string `json:"telefono"`
	Email              string `json:"email" validate:"omitempty,email"`
	ProductosServicios string `json:"productos_servicios"`
	CondicionesPago    string `json:"condiciones_pago"`
	Estatus            string `json:"estatus"`
	Notas              string `json:"notas"`
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in supplierInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	in.NombreProveedor = strings.TrimSpace(in.NombreProveedor)
	if err := validate.Struct(in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "El nombre del proveedor es requerido", nil)
		return
	}
	if in.Estatus == "" {
		in.Estatus = "Activo"
	}
	supplier := models.Supplier{
		NombreProveedor:    in.NombreProveedor,
		NombreContacto:     in.NombreContacto,
		Telefono:           in.Telefono,
		Email:              in.Email,
		ProductosServicios: in.ProductosServicios,
		CondicionesPago:    in.CondicionesPago,
		Estatus:            in.Estatus,
		Notas:              in.Notas,
	}
	if err := h.DB.Create(&supplier).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if h.OpLog != nil {
		h.OpLog.Record("PROVEEDOR_CREADO",
			fmt.Sprintf("Proveedor creado: %s", supplier.NombreProveedor),
			"Sistema", "proveedores", supplier.ID, nil,
			map[string]any{
				"nombre_proveedor": supplier.NombreProveedor,
				"nombre_contacto":  supplier.NombreContacto,
				"telefono":         supplier.Telefono,
				"email":            supplier.Email,
			})
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "Proveedor creado exitosamente",
		"supplier": supplier,
	})
}

type supplierUpdateInput struct {
	NombreProveedor    *string `json:"nombre_proveedor"`
	NombreContacto     *string `json:"nombre_contacto"`
	Telefono           *string `json:"telefono"`
	Email              *string `json:"email"`
	ProductosServicios *string `json:"productos_servicios"`
	CondicionesPago    *string `json:"condiciones_pago"`
	Estatus            *string `json:"estatus"`
	Notas              *string `json:"notas"`
}

func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	var in supplierUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}

	var existing models.Supplier
	if err := h.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Proveedor no encontrado", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if in.NombreProveedor != nil && strings.TrimSpace(*in.NombreProveedor) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "El nombre del proveedor no puede estar vacío", nil)
		return
	}

	updates := map[string]any{}
	if in.NombreProveedor != nil {
		updates["nombre_proveedor"] = strings.TrimSpace(*in.NombreProveedor)
	}
	if in.NombreContacto != nil {
		updates["nombre_contacto"] = *in.NombreContacto
	}
	if in.Telefono != nil {
		updates["telefono"] = *in.Telefono
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.ProductosServicios != nil {
		updates["productos_servicios"] = *in.ProductosServicios
	}
	if in.CondicionesPago != nil {
		updates["condiciones_pago"] = *in.CondicionesPago
	}
	if in.Estatus != nil {
		updates["estatus"] = *in.Estatus
	}
	if in.Notas != nil {
		updates["notas"] = *in.Notas
	}
	if len(updates) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "No se proporcionaron campos para actualizar", nil)
		return
	}

	if err := h.DB.Model(&models.Supplier{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	var updated models.Supplier
	if err := h.DB.First(&updated, id).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Proveedor actualizado exitosamente",
		"supplier": updated,
	})
}

func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	var existing models.Supplier
	if err := h.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Proveedor no encontrado", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if err := h.DB.Delete(&models.Supplier{}, id).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Proveedor eliminado exitosamente",
	})
}
