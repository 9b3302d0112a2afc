package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"posventa/internal/models"
	"posventa/internal/services"
)

func TestSaleHandlerCreate(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 850, 10)
	h := NewSaleHandler(services.NewSaleService(db, nil))

	body := map[string]any{
		"items": []map[string]any{
			{"id": p.ID, "nombre": p.Nombre, "precio": 850, "cantidad": 2},
		},
		"metodo_pago": "tarjeta",
	}
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/sales", encodeBody(t, body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success       bool    `json:"success"`
		NumeroFactura string  `json:"numero_factura"`
		Total         float64 `json:"total"`
		SaleID        uint    `json:"saleId"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Total != 1700 || resp.SaleID == 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(resp.NumeroFactura, "FAC-") {
		t.Fatalf("numero_factura = %s", resp.NumeroFactura)
	}
}

func TestSaleHandlerCreateEmptyItems(t *testing.T) {
	db := setupTestDB(t)
	h := NewSaleHandler(services.NewSaleService(db, nil))

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/sales", encodeBody(t, map[string]any{"items": []any{}})))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "al menos un item") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestSaleHandlerCreateInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 1)
	h := NewSaleHandler(services.NewSaleService(db, nil))

	body := map[string]any{
		"items": []map[string]any{
			{"id": p.ID, "nombre": p.Nombre, "precio": 100, "cantidad": 5},
		},
	}
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/sales", encodeBody(t, body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Stock insuficiente para el producto "+p.Nombre) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestSaleHandlerCancel(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	svc := services.NewSaleService(db, nil)
	h := NewSaleHandler(svc)

	receipt, err := svc.Create(services.SaleInput{Items: []services.SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 2}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	id := strconv.Itoa(int(receipt.SaleID))
	req := httptest.NewRequest(http.MethodDelete, "/api/sales/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "El stock ha sido restaurado") {
		t.Fatalf("body = %s", rec.Body.String())
	}

	var count int64
	db.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("sale should be deleted, found %d", count)
	}
}

func TestSaleHandlerCancelMissing(t *testing.T) {
	db := setupTestDB(t)
	h := NewSaleHandler(services.NewSaleService(db, nil))

	req := httptest.NewRequest(http.MethodDelete, "/api/sales/42", nil)
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSaleHandlerList(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	svc := services.NewSaleService(db, nil)
	h := NewSaleHandler(svc)

	if _, err := svc.Create(services.SaleInput{Items: []services.SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 1}}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/sales", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var views []services.SaleView
	decodeBody(t, rec, &views)
	if len(views) != 1 || views[0].Total != 100 {
		t.Fatalf("unexpected views: %+v", views)
	}
}
