package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"posventa/internal/httpx"
	"posventa/internal/services"
)

type LicenseHandler struct {
	Licenses *services.LicenseService
}

func NewLicenseHandler(licenses *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{Licenses: licenses}
}

type activateInput struct {
	LicenseKey string `json:"licenseKey"`
	ClientData any    `json:"clientData"`
}

// Activate consumes a code from the pool and enables premium features for a
// month.
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var in activateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	if in.LicenseKey == "" {
		httpx.JSONError(w, http.StatusBadRequest, "Clave de licencia requerida", nil)
		return
	}
	lic, err := h.Licenses.Activate(in.LicenseKey, in.ClientData)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidKey),
			errors.Is(err, services.ErrKeyNotInPool),
			errors.Is(err, services.ErrKeyUsed),
			errors.Is(err, services.ErrAlreadyActive):
			httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		default:
			httpx.JSONError(w, http.StatusInternalServerError, "Error al activar la licencia: "+err.Error(), nil)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Licencia activada exitosamente. Características premium disponibles hasta " +
			lic.FechaExpiracion.Format("02/01/2006") + ".",
	})
}

// Status reports the current license with its expiration countdown.
func (h *LicenseHandler) Status(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.Licenses.Details())
}

// Deactivate turns premium features off without returning the code to the
// pool.
func (h *LicenseHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Licenses.Deactivate(); err != nil {
		if errors.Is(err, services.ErrNoActive) {
			httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "Error al desactivar la licencia: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Licencia desactivada exitosamente. Las características premium ya no estarán disponibles.",
	})
}

// CanGenerateReports gates the reporting UI on the license.
func (h *LicenseHandler) CanGenerateReports(w http.ResponseWriter, r *http.Request) {
	licensed := h.Licenses.IsLicensed()
	msg := "Requiere licencia para generar reportes"
	if licensed {
		msg = "Reportes disponibles"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"canGenerate": licensed,
		"message":     msg,
	})
}
