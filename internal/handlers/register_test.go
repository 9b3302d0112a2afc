package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"posventa/internal/models"
	"posventa/internal/services"
)

func TestRegisterHandlerPreview(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	sales := services.NewSaleService(db, nil)
	h := NewRegisterHandler(services.NewRegisterService(db, sales, nil))

	if _, err := sales.Create(services.SaleInput{Items: []services.SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 2}}}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Preview(rec, httptest.NewRequest(http.MethodPost, "/api/close-register-preview", encodeBody(t, map[string]any{"dineroInicial": 500})))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var sum struct {
		Total         float64 `json:"total"`
		TotalEsperado float64 `json:"total_esperado"`
		Diferencia    float64 `json:"diferencia"`
		Preview       bool    `json:"preview"`
	}
	decodeBody(t, rec, &sum)
	if sum.Total != 200 || sum.TotalEsperado != 700 || sum.Diferencia != 0 || !sum.Preview {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	var count int64
	db.Model(&models.RegisterClosing{}).Count(&count)
	if count != 0 {
		t.Fatalf("preview must not persist, found %d closings", count)
	}
}

func TestRegisterHandlerPreviewNegativeInitial(t *testing.T) {
	db := setupTestDB(t)
	h := NewRegisterHandler(services.NewRegisterService(db, services.NewSaleService(db, nil), nil))

	rec := httptest.NewRecorder()
	h.Preview(rec, httptest.NewRequest(http.MethodPost, "/api/close-register-preview", encodeBody(t, map[string]any{"dineroInicial": -5})))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterHandlerCloseAcceptsAutoString(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	sales := services.NewSaleService(db, nil)
	h := NewRegisterHandler(services.NewRegisterService(db, sales, nil))

	if _, err := sales.Create(services.SaleInput{Items: []services.SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 1}}}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Close(rec, httptest.NewRequest(http.MethodPost, "/api/close-register",
		encodeBody(t, map[string]any{"dineroInicial": 0, "dineroContado": "auto"})))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var count int64
	db.Model(&models.RegisterClosing{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 closing, got %d", count)
	}
}

func TestRegisterHandlerCloseAcceptsNumericCounted(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	sales := services.NewSaleService(db, nil)
	h := NewRegisterHandler(services.NewRegisterService(db, sales, nil))

	if _, err := sales.Create(services.SaleInput{Items: []services.SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 1}}}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Close(rec, httptest.NewRequest(http.MethodPost, "/api/close-register",
		encodeBody(t, map[string]any{"dineroInicial": 0, "dineroContado": 80})))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var sum struct {
		DineroContado float64 `json:"dinero_contado"`
		Diferencia    float64 `json:"diferencia"`
	}
	decodeBody(t, rec, &sum)
	if sum.DineroContado != 80 || sum.Diferencia != 20 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRegisterHandlerCloseAbsentCountedMeansZero(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "P1", 100, 10)
	sales := services.NewSaleService(db, nil)
	h := NewRegisterHandler(services.NewRegisterService(db, sales, nil))

	if _, err := sales.Create(services.SaleInput{Items: []services.SaleItemInput{{ID: p.ID, Precio: 100, Cantidad: 1}}}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Close(rec, httptest.NewRequest(http.MethodPost, "/api/close-register",
		encodeBody(t, map[string]any{"dineroInicial": 50})))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var sum struct {
		DineroContado float64 `json:"dinero_contado"`
		TotalEsperado float64 `json:"total_esperado"`
		Diferencia    float64 `json:"diferencia"`
	}
	decodeBody(t, rec, &sum)
	if sum.DineroContado != 0 || sum.TotalEsperado != 150 || sum.Diferencia != 150 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRegisterHandlerConfirm(t *testing.T) {
	db := setupTestDB(t)
	h := NewRegisterHandler(services.NewRegisterService(db, services.NewSaleService(db, nil), nil))

	body := map[string]any{
		"fecha":           "2026-08-31 18:30:00",
		"dinero_inicial":  500,
		"total":           300,
		"total_esperado":  800,
		"diferencia":      0,
		"cantidad_ventas": 3,
	}
	rec := httptest.NewRecorder()
	h.Confirm(rec, httptest.NewRequest(http.MethodPost, "/api/confirm-close-register", encodeBody(t, body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "confirmado y registrado exitosamente") {
		t.Fatalf("body = %s", rec.Body.String())
	}
	var count int64
	db.Model(&models.RegisterClosing{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 closing, got %d", count)
	}
}

func TestRegisterHandlerHistory(t *testing.T) {
	db := setupTestDB(t)
	h := NewRegisterHandler(services.NewRegisterService(db, services.NewSaleService(db, nil), nil))
	db.Create(&models.RegisterClosing{DineroInicial: 100})

	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/api/cierres", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var closings []models.RegisterClosing
	decodeBody(t, rec, &closings)
	if len(closings) != 1 {
		t.Fatalf("expected 1 closing, got %d", len(closings))
	}
}
