package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"posventa/internal/httpx"
	"posventa/internal/services"
)

type PromotionHandler struct {
	Promotions *services.PromotionService
}

func NewPromotionHandler(promotions *services.PromotionService) *PromotionHandler {
	return &PromotionHandler{Promotions: promotions}
}

func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Promotions.List()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if rows == nil {
		rows = []services.PromotionSummary{}
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *PromotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	detail, err := h.Promotions.Get(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrPromotionNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Promoción no encontrada", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

// Create enforces the free-tier caps before inserting; LimitError responses
// carry the upsell payload the frontend renders.
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.PromotionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	id, err := h.Promotions.Create(in)
	if err != nil {
		var limitErr *services.LimitError
		if errors.As(err, &limitErr) {
			httpx.JSON(w, limitErr.Status, map[string]any{
				"error":           limitErr.Title,
				"message":         limitErr.Message,
				"suggestion":      limitErr.Suggestion,
				"requiresLicense": true,
				"activateUrl":     "/activate",
			})
			return
		}
		switch {
		case errors.Is(err, services.ErrPromotionTitle),
			errors.Is(err, services.ErrPromotionNoItems):
			httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		var conflictErr *services.ConflictError
		if errors.As(err, &conflictErr) {
			httpx.JSONError(w, http.StatusConflict, conflictErr.Error(), nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "Error interno del servidor: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"message":      "Promoción creada exitosamente",
		"promotion_id": id,
	})
}

func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	if err := h.Promotions.Delete(uint(id)); err != nil {
		if errors.Is(err, services.ErrPromotionNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Promoción no encontrada", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "Error interno del servidor: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Promoción eliminada exitosamente",
	})
}

// CleanDuplicates removes products that ended up in more than one promotion.
func (h *PromotionHandler) CleanDuplicates(w http.ResponseWriter, r *http.Request) {
	result, err := h.Promotions.CleanDuplicates()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "Error al limpiar promociones duplicadas: "+err.Error(), nil)
		return
	}
	if result.Cleaned == 0 {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "No se encontraron productos en múltiples promociones",
			"cleaned": 0,
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Se limpiaron productos duplicados de promociones",
		"cleaned":           result.Cleaned,
		"affected_products": result.AffectedProducts,
		"details":           result.Details,
	})
}
