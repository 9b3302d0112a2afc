package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"posventa/internal/httpx"
	"posventa/internal/services"
)

type RegisterHandler struct {
	Registers *services.RegisterService
}

func NewRegisterHandler(registers *services.RegisterService) *RegisterHandler {
	return &RegisterHandler{Registers: registers}
}

type previewInput struct {
	Fecha         string  `json:"fecha"`
	DineroInicial float64 `json:"dineroInicial"`
}

// Preview computes the closing figures without persisting anything.
func (h *RegisterHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var in previewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	sum, err := h.Registers.Preview(in.Fecha, in.DineroInicial)
	if err != nil {
		if errors.Is(err, services.ErrNegativeInitial) {
			httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "Error en preview de cierre de caja: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

// Confirm stores a closing computed by a previous preview.
func (h *RegisterHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var in services.ConfirmInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	if err := h.Registers.Confirm(in); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "Error confirmando cierre de caja: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Cierre de caja confirmado y registrado exitosamente",
	})
}

type closeInput struct {
	Fecha         string          `json:"fecha"`
	DineroInicial float64         `json:"dineroInicial"`
	DineroContado json.RawMessage `json:"dineroContado"`
}

// Close is the one-step closing: compute, persist, and report. dineroContado
// accepts a number or the string "auto"; when absent it counts as zero.
func (h *RegisterHandler) Close(w http.ResponseWriter, r *http.Request) {
	var in closeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	contado := ""
	if len(in.DineroContado) > 0 && string(in.DineroContado) != "null" {
		var asString string
		if err := json.Unmarshal(in.DineroContado, &asString); err == nil {
			contado = asString
		} else {
			contado = string(in.DineroContado)
		}
	}
	sum, err := h.Registers.Close(in.Fecha, in.DineroInicial, contado)
	if err != nil {
		if errors.Is(err, services.ErrNegativeInitial) || errors.Is(err, services.ErrNegativeCounted) {
			httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "Error en el cierre de caja: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

// History lists every stored closing, newest first.
func (h *RegisterHandler) History(w http.ResponseWriter, r *http.Request) {
	closings, err := h.Registers.History()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "Error obteniendo historial de cierres: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, closings)
}
