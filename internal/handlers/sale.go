package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"posventa/internal/httpx"
	"posventa/internal/services"
)

type SaleHandler struct {
	Sales *services.SaleService
}

func NewSaleHandler(sales *services.SaleService) *SaleHandler {
	return &SaleHandler{Sales: sales}
}

// Create records a sale. The stock guard runs inside the transaction, so an
// oversold line rejects the whole ticket.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.SaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "JSON inválido", nil)
		return
	}
	if len(in.Items) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "La venta debe incluir al menos un item válido", nil)
		return
	}
	if err := validate.Struct(in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "La venta debe incluir al menos un item válido", nil)
		return
	}

	receipt, err := h.Sales.Create(in)
	if err != nil {
		// The oversell guard is a client error: the cart asked for more
		// than the shelf has.
		var stockErr *services.InsufficientStockError
		if errors.As(err, &stockErr) {
			httpx.JSONError(w, http.StatusBadRequest, "Error procesando la venta: "+stockErr.Error(), nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "Error procesando la venta: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"numero_factura": receipt.NumeroFactura,
		"total":          receipt.Total,
		"saleId":         receipt.SaleID,
		"fecha_venta":    receipt.FechaVenta,
		"message":        "Venta registrada exitosamente",
	})
}

// List returns the ledger, optionally filtered by date or range.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.Sales.List(services.SaleFilter{
		Date:      r.URL.Query().Get("date"),
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if views == nil {
		views = []services.SaleView{}
	}
	httpx.JSON(w, http.StatusOK, views)
}

// Cancel deletes a sale and restores the stock it consumed.
func (h *SaleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ID inválido", nil)
		return
	}
	if err := h.Sales.Cancel(uint(id)); err != nil {
		if errors.Is(err, services.ErrSaleNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "Venta no encontrada", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "Error interno del servidor: "+err.Error(), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Venta cancelada exitosamente. El stock ha sido restaurado.",
	})
}
